package service

import (
	"context"
	"sort"

	"kolboard/internal/models"
	"kolboard/internal/repository"

	"github.com/google/uuid"
)

const (
	LeaderboardFollowers = "followers"
	LeaderboardReturn    = "return"

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
)

// LeaderboardService ranks community members by followers or by portfolio return.
type LeaderboardService struct {
	userRepo  repository.UserRepository
	portfolio *PortfolioService
	repo      repository.PortfolioRepository
}

func NewLeaderboardService(userRepo repository.UserRepository, repo repository.PortfolioRepository, portfolio *PortfolioService) *LeaderboardService {
	return &LeaderboardService{userRepo: userRepo, repo: repo, portfolio: portfolio}
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, metric string, limit int) ([]models.LeaderboardEntry, error) {
	limit = clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit)
	switch metric {
	case "", LeaderboardFollowers:
		return s.byFollowers(ctx, limit)
	case LeaderboardReturn:
		return s.byReturn(ctx, limit)
	default:
		return nil, models.NewValidationError("metric must be one of: followers, return")
	}
}

func (s *LeaderboardService) byFollowers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	users, err := s.userRepo.TopByFollowers(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, len(users))
	for i := range users {
		entries[i] = models.LeaderboardEntry{
			Rank:      i + 1,
			User:      users[i].ToProfileCard(),
			Followers: users[i].FollowerCount,
		}
	}
	return entries, nil
}

// byReturn ranks public portfolios whose owners show P&L, using the same view
// an anonymous visitor gets so hidden holdings never move the published number.
// Portfolios with nothing visible have no return and are skipped.
func (s *LeaderboardService) byReturn(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	ids, err := s.repo.ListPublicUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(ids))
	owners := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		holdings, err := s.portfolio.render(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if holdings.Totals.PnLPercent == nil || len(holdings.Equities)+len(holdings.Options) == 0 {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			User:      models.ProfileCard{ID: id},
			ReturnPct: holdings.Totals.PnLPercent,
		})
		owners = append(owners, id)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ReturnPct.GreaterThan(*entries[j].ReturnPct)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	users, err := s.userRepo.ListByIDs(ctx, owners)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range entries {
		if u, ok := byID[entries[i].User.ID]; ok {
			entries[i].User = u.ToProfileCard()
			entries[i].Followers = u.FollowerCount
		}
		entries[i].User.HoldingsPublic = true
		entries[i].Rank = i + 1
	}
	return entries, nil
}
