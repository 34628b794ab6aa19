package service

import (
	"context"

	"kolboard/internal/models"
	"kolboard/internal/upstream"
)

// KOLSource is the upstream KOL directory and tweet feed.
type KOLSource interface {
	ListProfiles(ctx context.Context, category string) ([]models.KOLProfile, error)
	GetProfile(ctx context.Context, platform, kolID string) (*models.KOLProfile, error)
	ListTweets(ctx context.Context, platform, kolID string, limit int) ([]models.Tweet, error)
}

// MarketSource is the upstream stock data feed.
type MarketSource interface {
	TrendingStocks(ctx context.Context) ([]models.TrendingStock, error)
	Quote(ctx context.Context, symbol string) (*models.StockQuote, error)
	Change(ctx context.Context, symbol string, days int) (*models.StockChange, error)
	Chart(ctx context.Context, symbol, rng string) ([]models.ChartPoint, error)
	Discussions(ctx context.Context, symbol string, limit int) ([]models.Discussion, error)
	News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

// BrokerageSource is the upstream brokerage aggregator.
type BrokerageSource interface {
	RegisterSnapTradeUser(ctx context.Context, localUserID string) (*upstream.SnapTradeUser, error)
	SnapTradeAccounts(ctx context.Context, snapUserID string) ([]upstream.SnapTradeAccount, error)
	SnapTradePositions(ctx context.Context, snapUserID, accountID string) ([]upstream.SnapTradePosition, error)
}

var (
	_ KOLSource       = (*upstream.Client)(nil)
	_ MarketSource    = (*upstream.Client)(nil)
	_ BrokerageSource = (*upstream.Client)(nil)
)
