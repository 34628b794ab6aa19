package service

import (
	"context"
	"strings"
	"time"

	"kolboard/internal/cache"
	"kolboard/internal/listing"
	"kolboard/internal/models"
	"kolboard/internal/repository"
	"kolboard/internal/validation"

	"github.com/google/uuid"
)

const (
	DefaultQuoteTTL         = time.Minute
	DefaultTrendingPageSize = 20
	MaxTrendingPageSize     = 100
	PredictionWindowDays    = 7
	defaultFeedLimit        = 20
	maxFeedLimit            = 100
)

// TrendingStockColumns are the sortable columns of the trending table.
var TrendingStockColumns = map[string]listing.Column[models.TrendingStock]{
	"symbol":          listing.Text(func(s models.TrendingStock) string { return s.Symbol }),
	"company_name":    listing.Text(func(s models.TrendingStock) string { return s.CompanyName }),
	"price":           listing.Nullable(func(s models.TrendingStock) *float64 { return s.Price }),
	"change_percent":  listing.Nullable(func(s models.TrendingStock) *float64 { return s.ChangePercent }),
	"mention_count":   listing.Value(func(s models.TrendingStock) int { return s.MentionCount }),
	"sentiment_score": listing.Nullable(func(s models.TrendingStock) *float64 { return s.SentimentScore }),
}

// TrendingQuery are the table controls of the trending-stocks view.
type TrendingQuery struct {
	Query    string
	Sort     listing.SortState
	Page     int
	PageSize int
}

// StockService serves quotes, charts and the trending table on top of the
// upstream market feed.
type StockService struct {
	market   MarketSource
	tracked  repository.TrackedStockRepository
	quoteTTL time.Duration
}

func NewStockService(market MarketSource, tracked repository.TrackedStockRepository, quoteTTL time.Duration) *StockService {
	if quoteTTL <= 0 {
		quoteTTL = DefaultQuoteTTL
	}
	return &StockService{market: market, tracked: tracked, quoteTTL: quoteTTL}
}

func (s *StockService) Quote(ctx context.Context, symbol string) (*models.StockQuote, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	var quote models.StockQuote
	err = cache.Aside(ctx, cache.QuoteKey(symbol), &quote, s.quoteTTL, func() error {
		q, err := s.market.Quote(ctx, symbol)
		if err != nil {
			return models.NewUpstreamError("fetch quote", err)
		}
		quote = *q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// RefreshQuote bypasses the cache read and stores a fresh quote.
func (s *StockService) RefreshQuote(ctx context.Context, symbol string) error {
	q, err := s.market.Quote(ctx, symbol)
	if err != nil {
		return models.NewUpstreamError("fetch quote", err)
	}
	return cache.SetJSON(ctx, cache.QuoteKey(symbol), q, s.quoteTTL)
}

// TrackedSymbols lists every symbol on at least one watchlist.
func (s *StockService) TrackedSymbols(ctx context.Context) ([]string, error) {
	if s.tracked == nil {
		return nil, nil
	}
	return s.tracked.DistinctSymbols(ctx)
}

// Change7d returns the 7-day percentage change used to resolve predictions.
func (s *StockService) Change7d(ctx context.Context, symbol string) (float64, error) {
	var change models.StockChange
	err := cache.Aside(ctx, cache.ChangeKey(symbol), &change, cache.ChangeTTL, func() error {
		c, err := s.market.Change(ctx, symbol, PredictionWindowDays)
		if err != nil {
			return models.NewUpstreamError("fetch price change", err)
		}
		change = *c
		return nil
	})
	if err != nil {
		return 0, err
	}
	return change.ChangePercent, nil
}

func (s *StockService) Chart(ctx context.Context, symbol, rng string) ([]models.ChartPoint, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	points, err := s.market.Chart(ctx, symbol, strings.ToLower(strings.TrimSpace(rng)))
	if err != nil {
		return nil, models.NewUpstreamError("fetch chart", err)
	}
	return points, nil
}

func (s *StockService) Discussions(ctx context.Context, symbol string, limit int) ([]models.Discussion, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	items, err := s.market.Discussions(ctx, symbol, clampLimit(limit, defaultFeedLimit, maxFeedLimit))
	if err != nil {
		return nil, models.NewUpstreamError("fetch discussions", err)
	}
	return items, nil
}

func (s *StockService) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	symbol, err := validation.ValidateSymbol(symbol)
	if err != nil {
		return nil, err
	}
	items, err := s.market.News(ctx, symbol, clampLimit(limit, defaultFeedLimit, maxFeedLimit))
	if err != nil {
		return nil, models.NewUpstreamError("fetch news", err)
	}
	return items, nil
}

// Trending filters, sorts and pages the upstream trending list. An unsorted
// state keeps upstream order.
func (s *StockService) Trending(ctx context.Context, viewerID *uuid.UUID, q TrendingQuery) (*listing.Page[models.TrendingStock], error) {
	stocks, err := s.market.TrendingStocks(ctx)
	if err != nil {
		return nil, models.NewUpstreamError("fetch trending stocks", err)
	}

	if viewerID != nil && s.tracked != nil {
		set, err := s.tracked.TrackedSymbols(ctx, *viewerID)
		if err != nil {
			return nil, err
		}
		for i := range stocks {
			stocks[i].IsTracked = set[stocks[i].Symbol]
		}
	}

	if needle := strings.ToLower(strings.TrimSpace(q.Query)); needle != "" {
		stocks = listing.Filter(stocks, func(st models.TrendingStock) bool {
			return strings.Contains(strings.ToLower(st.Symbol), needle) ||
				strings.Contains(strings.ToLower(st.CompanyName), needle)
		})
	}

	sorted := listing.Sort(stocks, q.Sort, TrendingStockColumns)
	page := listing.Paginate(sorted, q.Page, clampLimit(q.PageSize, DefaultTrendingPageSize, MaxTrendingPageSize))
	return &page, nil
}

func clampLimit(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
