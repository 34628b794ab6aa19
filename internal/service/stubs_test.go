package service

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"kolboard/internal/models"
	"kolboard/internal/upstream"
)

var errStubUnavailable = errors.New("stub: unavailable")

// kolSourceStub serves a fixed directory and tweet feed.
type kolSourceStub struct {
	profiles []models.KOLProfile
	tweets   map[string][]models.Tweet
	listErr  error
}

func (s *kolSourceStub) ListProfiles(_ context.Context, category string) ([]models.KOLProfile, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.KOLProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *kolSourceStub) GetProfile(_ context.Context, platform, kolID string) (*models.KOLProfile, error) {
	for _, p := range s.profiles {
		if p.Platform == platform && p.KOLID == kolID {
			cp := p
			return &cp, nil
		}
	}
	return nil, &upstream.StatusError{Endpoint: "/kol", StatusCode: http.StatusNotFound}
}

func (s *kolSourceStub) ListTweets(_ context.Context, _, kolID string, limit int) ([]models.Tweet, error) {
	tweets := s.tweets[kolID]
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}
	return tweets, nil
}

// marketStub answers quotes and 7-day changes from maps; a missing symbol fails.
type marketStub struct {
	mu       sync.Mutex
	quotes   map[string]float64
	changes  map[string]float64
	trending []models.TrendingStock
	calls    map[string]int
}

func (m *marketStub) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[call]++
}

func (m *marketStub) TrendingStocks(context.Context) ([]models.TrendingStock, error) {
	m.record("trending")
	return append([]models.TrendingStock(nil), m.trending...), nil
}

func (m *marketStub) Quote(_ context.Context, symbol string) (*models.StockQuote, error) {
	m.record("quote:" + symbol)
	price, ok := m.quotes[symbol]
	if !ok {
		return nil, errStubUnavailable
	}
	return &models.StockQuote{Symbol: symbol, Price: price}, nil
}

func (m *marketStub) Change(_ context.Context, symbol string, days int) (*models.StockChange, error) {
	m.record("change:" + symbol)
	change, ok := m.changes[symbol]
	if !ok {
		return nil, errStubUnavailable
	}
	return &models.StockChange{Symbol: symbol, Days: days, ChangePercent: change}, nil
}

func (m *marketStub) Chart(context.Context, string, string) ([]models.ChartPoint, error) {
	return nil, errStubUnavailable
}

func (m *marketStub) Discussions(context.Context, string, int) ([]models.Discussion, error) {
	return nil, errStubUnavailable
}

func (m *marketStub) News(context.Context, string, int) ([]models.NewsItem, error) {
	return nil, errStubUnavailable
}

func (m *marketStub) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[call]
}
