// Package analysis derives per-ticker prediction performance from a KOL's tweets.
package analysis

import (
	"sort"
	"strings"
	"time"

	"kolboard/internal/models"
)

// Prediction is one (tweet, ticker) call with the tweet's sentiment.
type Prediction struct {
	TweetID    string                `json:"tweet_id"`
	Sentiment  models.SentimentValue `json:"sentiment"`
	Confidence *float64              `json:"confidence,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
}

// TickerPerformance aggregates a KOL's predictions for one ticker.
// IsMatch stays nil until a price change is known and the dominant
// sentiment is directional; nil renders as "unresolved".
type TickerPerformance struct {
	Ticker         string                `json:"ticker"`
	Predictions    []Prediction          `json:"predictions"`
	BullishCount   int                   `json:"bullish_count"`
	BearishCount   int                   `json:"bearish_count"`
	NeutralCount   int                   `json:"neutral_count"`
	Dominant       models.SentimentValue `json:"dominant_sentiment"`
	AvgConfidence  float64               `json:"avg_confidence"`
	PriceChange7d  *float64              `json:"price_change_7d"`
	IsMatch        *bool                 `json:"is_match"`
	LastMentioned  time.Time             `json:"last_mentioned_at"`
	confidenceSum  float64
	confidenceSeen int
}

// Summary is the panel header: totals, win rate and mean confidence.
type Summary struct {
	TotalPredictions int      `json:"total_predictions"`
	Tickers          int      `json:"tickers"`
	Resolved         int      `json:"resolved"`
	Correct          int      `json:"correct"`
	WinRate          *float64 `json:"win_rate"`
	AvgConfidence    float64  `json:"avg_confidence"`
	BullishRatio     float64  `json:"bullish_ratio"`
}

// Report is the response of the analysis endpoint.
type Report struct {
	Summary     Summary             `json:"summary"`
	Performance []TickerPerformance `json:"performance"`
}

// NormalizeTicker strips a cashtag and upper-cases.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(t), "$"))
}

// Aggregate builds one TickerPerformance per ticker mentioned by a tweet that
// carries a sentiment value. A ticker repeated within one tweet counts once.
// Results are ordered by prediction count desc, then ticker asc.
func Aggregate(tweets []models.Tweet) []TickerPerformance {
	byTicker := make(map[string]*TickerPerformance)

	for _, tw := range tweets {
		if tw.Sentiment == nil || tw.Sentiment.Value == "" || len(tw.Tickers) == 0 {
			continue
		}
		sentiment := tw.Sentiment.Value
		seen := make(map[string]bool, len(tw.Tickers))
		for _, raw := range tw.Tickers {
			ticker := NormalizeTicker(raw)
			if ticker == "" || seen[ticker] {
				continue
			}
			seen[ticker] = true

			perf, ok := byTicker[ticker]
			if !ok {
				perf = &TickerPerformance{Ticker: ticker}
				byTicker[ticker] = perf
			}
			perf.Predictions = append(perf.Predictions, Prediction{
				TweetID:    tw.ID,
				Sentiment:  sentiment,
				Confidence: tw.Sentiment.Confidence,
				CreatedAt:  tw.CreatedAt,
			})
			switch sentiment {
			case models.SentimentBullish:
				perf.BullishCount++
			case models.SentimentBearish:
				perf.BearishCount++
			default:
				perf.NeutralCount++
			}
			if c := tw.Sentiment.Confidence; c != nil {
				perf.confidenceSum += *c
				perf.confidenceSeen++
			}
			if tw.CreatedAt.After(perf.LastMentioned) {
				perf.LastMentioned = tw.CreatedAt
			}
		}
	}

	out := make([]TickerPerformance, 0, len(byTicker))
	for _, perf := range byTicker {
		perf.Dominant = dominant(perf.BullishCount, perf.BearishCount)
		if perf.confidenceSeen > 0 {
			perf.AvgConfidence = perf.confidenceSum / float64(perf.confidenceSeen)
		}
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Predictions) != len(out[j].Predictions) {
			return len(out[i].Predictions) > len(out[j].Predictions)
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

func dominant(bullish, bearish int) models.SentimentValue {
	switch {
	case bullish > bearish:
		return models.SentimentBullish
	case bearish > bullish:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// Resolve attaches 7-day price changes. A ticker missing from changes keeps
// IsMatch nil; so does a neutral dominant sentiment. Bullish matches a change
// >= 0, bearish matches a change < 0.
func Resolve(perfs []TickerPerformance, changes map[string]float64) []TickerPerformance {
	out := make([]TickerPerformance, len(perfs))
	for i, perf := range perfs {
		perf.PriceChange7d = nil
		perf.IsMatch = nil
		if change, ok := changes[perf.Ticker]; ok {
			c := change
			perf.PriceChange7d = &c
			switch perf.Dominant {
			case models.SentimentBullish:
				m := c >= 0
				perf.IsMatch = &m
			case models.SentimentBearish:
				m := c < 0
				perf.IsMatch = &m
			}
		}
		out[i] = perf
	}
	return out
}

// Summarize computes panel totals. WinRate is nil when nothing is resolved.
func Summarize(perfs []TickerPerformance) Summary {
	s := Summary{Tickers: len(perfs)}
	var confSum float64
	var confSeen, bullish int

	for _, perf := range perfs {
		s.TotalPredictions += len(perf.Predictions)
		bullish += perf.BullishCount
		for _, p := range perf.Predictions {
			if p.Confidence != nil {
				confSum += *p.Confidence
				confSeen++
			}
		}
		if perf.IsMatch != nil {
			s.Resolved++
			if *perf.IsMatch {
				s.Correct++
			}
		}
	}

	if s.Resolved > 0 {
		rate := float64(s.Correct) / float64(s.Resolved)
		s.WinRate = &rate
	}
	if confSeen > 0 {
		s.AvgConfidence = confSum / float64(confSeen)
	}
	if s.TotalPredictions > 0 {
		s.BullishRatio = float64(bullish) / float64(s.TotalPredictions)
	}
	return s
}

// Tickers lists the tickers of perfs in order.
func Tickers(perfs []TickerPerformance) []string {
	out := make([]string, len(perfs))
	for i, p := range perfs {
		out[i] = p.Ticker
	}
	return out
}

// Build runs Aggregate, Resolve and Summarize.
func Build(tweets []models.Tweet, changes map[string]float64) Report {
	perfs := Resolve(Aggregate(tweets), changes)
	return Report{Summary: Summarize(perfs), Performance: perfs}
}
