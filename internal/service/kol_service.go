package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kolboard/internal/analysis"
	"kolboard/internal/cache"
	"kolboard/internal/listing"
	"kolboard/internal/models"
	"kolboard/internal/observability"
	"kolboard/internal/repository"
	"kolboard/internal/upstream"
	"kolboard/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultFanoutLimit   = 8
	DefaultKOLPageSize   = 20
	MaxKOLPageSize       = 100
	DefaultTweetLimit    = 20
	MaxTweetLimit        = 100
	DefaultAnalysisLimit = 100
)

// KOLColumns are the sortable columns of the KOL directory.
var KOLColumns = map[string]listing.Column[models.KOLProfile]{
	"followers":       listing.Value(func(p models.KOLProfile) int64 { return p.FollowersCount }),
	"influence_score": listing.Value(func(p models.KOLProfile) float64 { return p.InfluenceScore }),
	"trending_score":  listing.Value(func(p models.KOLProfile) float64 { return p.TrendingScore }),
	"last_post_at":    listing.Time(func(p models.KOLProfile) *time.Time { return p.LastPostAt }),
	"username":        listing.Text(func(p models.KOLProfile) string { return p.Username }),
	"tracker_count":   listing.Value(func(p models.KOLProfile) int { return p.TrackerCount }),
}

// KOLListQuery are the directory controls.
type KOLListQuery struct {
	Platform string
	Category string
	Sort     listing.SortState
	Limit    int
	Offset   int
}

// KOLList is the response of the directory listing.
type KOLList struct {
	Profiles []models.KOLProfile `json:"profiles"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
}

// KOLService serves the KOL directory, detail pages and the prediction panel.
type KOLService struct {
	source  KOLSource
	stocks  *StockService
	subRepo repository.KOLSubscriptionRepository
	fanout  int
	now     func() time.Time
}

func NewKOLService(source KOLSource, stocks *StockService, subRepo repository.KOLSubscriptionRepository, fanout int) *KOLService {
	if fanout <= 0 {
		fanout = DefaultFanoutLimit
	}
	return &KOLService{
		source:  source,
		stocks:  stocks,
		subRepo: subRepo,
		fanout:  fanout,
		now:     time.Now,
	}
}

// List enriches upstream profiles with placeholder scores, local tracker counts
// and the viewer's tracked flags, then sorts and windows them.
func (s *KOLService) List(ctx context.Context, viewerID *uuid.UUID, q KOLListQuery) (*KOLList, error) {
	limit := clampLimit(q.Limit, DefaultKOLPageSize, MaxKOLPageSize)
	offset := max(q.Offset, 0)

	profiles, err := s.source.ListProfiles(ctx, q.Category)
	if err != nil {
		return nil, models.NewUpstreamError("fetch KOL profiles", err)
	}
	if q.Platform != "" {
		profiles = listing.Filter(profiles, func(p models.KOLProfile) bool { return p.Platform == q.Platform })
	}

	counts, err := s.subRepo.TrackerCounts(ctx, q.Platform)
	if err != nil {
		return nil, err
	}
	var tracked map[repository.KOLKey]bool
	if viewerID != nil {
		if tracked, err = s.subRepo.TrackedSet(ctx, *viewerID, q.Platform); err != nil {
			return nil, err
		}
	}

	now := s.now()
	for i := range profiles {
		s.enrich(&profiles[i], now, counts, tracked)
	}

	sorted := listing.Sort(profiles, q.Sort, KOLColumns)
	return &KOLList{
		Profiles: listing.Window(sorted, offset, limit),
		Total:    len(sorted),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *KOLService) enrich(p *models.KOLProfile, now time.Time, counts map[repository.KOLKey]int, tracked map[repository.KOLKey]bool) {
	key := repository.KOLKey{Platform: p.Platform, KOLID: p.KOLID}
	p.TrendingScore = TrendingScore(p.Platform, p.KOLID, now)
	p.InfluenceScore = InfluenceScore(*p)
	p.TrackerCount = counts[key]
	p.IsTracked = tracked[key]
}

// Detail fetches the profile and recent tweets concurrently.
func (s *KOLService) Detail(ctx context.Context, viewerID *uuid.UUID, platform, kolID string, tweetLimit int) (*models.KOLDetail, error) {
	platform, kolID, err := validation.ValidateKOLRef(platform, kolID)
	if err != nil {
		return nil, err
	}
	tweetLimit = clampLimit(tweetLimit, DefaultTweetLimit, MaxTweetLimit)

	var (
		profile *models.KOLProfile
		tweets  []models.Tweet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.profile(gctx, platform, kolID)
		return err
	})
	g.Go(func() error {
		var err error
		tweets, err = s.source.ListTweets(gctx, platform, kolID, tweetLimit)
		if err != nil {
			return models.NewUpstreamError("fetch tweets", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	key := repository.KOLKey{Platform: platform, KOLID: kolID}
	counts, err := s.subRepo.TrackerCounts(ctx, platform)
	if err != nil {
		return nil, err
	}
	var tracked map[repository.KOLKey]bool
	if viewerID != nil {
		if tracked, err = s.subRepo.TrackedSet(ctx, *viewerID, platform); err != nil {
			return nil, err
		}
	}
	s.enrich(profile, s.now(), map[repository.KOLKey]int{key: counts[key]}, tracked)

	return &models.KOLDetail{Profile: profile, Tweets: tweets}, nil
}

func (s *KOLService) profile(ctx context.Context, platform, kolID string) (*models.KOLProfile, error) {
	var profile models.KOLProfile
	err := cache.Aside(ctx, cache.KOLProfileKey(platform, kolID), &profile, cache.KOLProfileTTL, func() error {
		p, err := s.source.GetProfile(ctx, platform, kolID)
		if err != nil {
			if upstream.IsNotFound(err) {
				return models.NewNotFoundError("KOL", platform+"/"+kolID)
			}
			return models.NewUpstreamError("fetch KOL profile", err)
		}
		profile = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Analysis backtests a KOL's ticker calls against 7-day price changes. Price
// lookups run concurrently; a failed lookup leaves that ticker unresolved.
func (s *KOLService) Analysis(ctx context.Context, platform, kolID string, tweetLimit int) (*analysis.Report, error) {
	platform, kolID, err := validation.ValidateKOLRef(platform, kolID)
	if err != nil {
		return nil, err
	}
	tweetLimit = clampLimit(tweetLimit, DefaultAnalysisLimit, MaxTweetLimit)

	tweets, err := s.source.ListTweets(ctx, platform, kolID, tweetLimit)
	if err != nil {
		return nil, models.NewUpstreamError("fetch tweets", err)
	}
	perfs := analysis.Aggregate(tweets)

	var (
		mu      sync.Mutex
		changes = make(map[string]float64, len(perfs))
	)
	if s.stocks != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.fanout)
		for _, ticker := range analysis.Tickers(perfs) {
			g.Go(func() error {
				change, err := s.stocks.Change7d(gctx, ticker)
				if err != nil {
					observability.Logger.DebugContext(ctx, "price change unavailable",
						slog.String("ticker", ticker),
						slog.String("error", err.Error()),
					)
					return nil
				}
				mu.Lock()
				changes[ticker] = change
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	perfs = analysis.Resolve(perfs, changes)
	return &analysis.Report{Summary: analysis.Summarize(perfs), Performance: perfs}, nil
}
