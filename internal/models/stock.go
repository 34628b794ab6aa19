package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackedStock is a symbol on the user's watchlist.
type TrackedStock struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tracked_stock_unique" json:"user_id"`
	Symbol      string    `gorm:"size:16;not null;uniqueIndex:idx_tracked_stock_unique;index" json:"symbol"`
	CompanyName string    `gorm:"size:200" json:"company_name"`
	LogoURL     string    `json:"logo_url"`
	Notify      bool      `gorm:"not null" json:"notify"`
	CreatedAt   time.Time `json:"created_at"`
}

func (TrackedStock) TableName() string {
	return "tracked_stocks"
}

// StockQuote is the latest price snapshot for a symbol.
type StockQuote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        int64     `json:"volume"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockChange is the percentage change of a symbol over a window of days.
type StockChange struct {
	Symbol        string  `json:"symbol"`
	Days          int     `json:"days"`
	ChangePercent float64 `json:"change_percent"`
}

// ChartPoint is one sample of a price chart (sparkline).
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// TrendingStock is a row of the trending-stocks table. Optional numeric fields
// stay nil when the upstream has no value so they sort last.
type TrendingStock struct {
	Symbol         string   `json:"symbol"`
	CompanyName    string   `json:"company_name"`
	LogoURL        string   `json:"logo_url,omitempty"`
	Price          *float64 `json:"price"`
	ChangePercent  *float64 `json:"change_percent"`
	MentionCount   int      `json:"mention_count"`
	SentimentScore *float64 `json:"sentiment_score"`
	TopKOLs        []string `json:"top_kols"`
	IsTracked      bool     `json:"is_tracked"`
}

// TrackedStockView is a tracked stock joined with its live quote.
type TrackedStockView struct {
	TrackedStock
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
}

// Discussion is a KOL post mentioning a ticker.
type Discussion struct {
	Tweet
	KOLUsername  string `json:"kol_username"`
	KOLAvatarURL string `json:"kol_avatar_url,omitempty"`
}

// NewsItem is a news article about a ticker.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// StockTrackStatus is returned by stock track and untrack calls.
type StockTrackStatus struct {
	Symbol  string `json:"symbol"`
	Tracked bool   `json:"tracked"`
}
