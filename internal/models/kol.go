package models

import (
	"time"

	"github.com/google/uuid"
)

// KOLSubscription is the per-user tracking relation for a key opinion leader.
type KOLSubscription struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_kol_sub_unique" json:"user_id"`
	Platform    string    `gorm:"size:20;not null;uniqueIndex:idx_kol_sub_unique" json:"platform"`
	KOLID       string    `gorm:"column:kol_id;size:64;not null;uniqueIndex:idx_kol_sub_unique" json:"kol_id"`
	KOLUsername string    `gorm:"column:kol_username;size:100" json:"kol_username"`
	Notify      bool      `gorm:"not null" json:"notify"`
	CreatedAt   time.Time `json:"created_at"`
}

func (KOLSubscription) TableName() string {
	return "kol_subscriptions"
}

// KOLStat keeps the local tracker counter for a KOL.
type KOLStat struct {
	Platform     string    `gorm:"primaryKey;size:20" json:"platform"`
	KOLID        string    `gorm:"column:kol_id;primaryKey;size:64" json:"kol_id"`
	TrackerCount int       `gorm:"default:0;not null;check:tracker_count >= 0" json:"tracker_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (KOLStat) TableName() string {
	return "kol_stats"
}

// TrackStatus is returned by track and untrack calls.
type TrackStatus struct {
	Tracked      bool `json:"tracked"`
	TrackerCount int  `json:"tracker_count"`
}

// SentimentValue is the direction of a sentiment judgement.
type SentimentValue string

const (
	SentimentBullish SentimentValue = "bullish"
	SentimentBearish SentimentValue = "bearish"
	SentimentNeutral SentimentValue = "neutral"
)

// Sentiment is the model judgement attached to a tweet by the upstream backend.
type Sentiment struct {
	Value      SentimentValue `json:"value"`
	Confidence *float64       `json:"confidence,omitempty"`
	Reasoning  string         `json:"reasoning,omitempty"`
}

// KOLProfile is an upstream-owned KOL record, enriched locally for listings.
type KOLProfile struct {
	KOLID          string     `json:"kol_id"`
	Platform       string     `json:"platform"`
	Username       string     `json:"username"`
	DisplayName    string     `json:"display_name"`
	AvatarURL      string     `json:"avatar_url"`
	Bio            string     `json:"bio"`
	Category       string     `json:"category,omitempty"`
	FollowersCount int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	PostsCount     int64      `json:"posts_count"`
	Verified       bool       `json:"verified"`
	LastPostAt     *time.Time `json:"last_post_at,omitempty"`

	// Local enrichment; zero values when not computed.
	TrendingScore  float64 `json:"trending_score"`
	InfluenceScore float64 `json:"influence_score"`
	TrackerCount   int     `json:"tracker_count"`
	IsTracked      bool    `json:"is_tracked"`
}

// Tweet is a post with extracted tickers and an optional sentiment judgement.
type Tweet struct {
	ID        string     `json:"id"`
	KOLID     string     `json:"kol_id"`
	Platform  string     `json:"platform"`
	Text      string     `json:"text"`
	URL       string     `json:"url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Likes     int64      `json:"likes"`
	Retweets  int64      `json:"retweets"`
	Replies   int64      `json:"replies"`
	Views     int64      `json:"views"`
	Tickers   []string   `json:"tickers"`
	Sentiment *Sentiment `json:"sentiment,omitempty"`
}

// KOLDetail is the response of GET /api/kol.
type KOLDetail struct {
	Profile *KOLProfile `json:"profile"`
	Tweets  []Tweet     `json:"tweets"`
}
