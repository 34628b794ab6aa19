package service

import (
	"context"
	"strings"
	"time"

	"kolboard/internal/cache"
	"kolboard/internal/models"
	"kolboard/internal/repository"
	"kolboard/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultProfileCardTTL is used when the configured hover-card TTL is zero.
const DefaultProfileCardTTL = 5 * time.Minute

const maxUsernameLength = 50

// Identity is what the auth middleware knows about the caller.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Email    string
}

type UserService struct {
	userRepo      repository.UserRepository
	portfolioRepo repository.PortfolioRepository
	cardTTL       time.Duration
	cards         singleflight.Group
}

func NewUserService(userRepo repository.UserRepository, portfolioRepo repository.PortfolioRepository, cardTTL time.Duration) *UserService {
	if cardTTL <= 0 {
		cardTTL = DefaultProfileCardTTL
	}
	return &UserService{
		userRepo:      userRepo,
		portfolioRepo: portfolioRepo,
		cardTTL:       cardTTL,
	}
}

// EnsureUser creates the local profile row for an authenticated account on first sight.
func (s *UserService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	if id.UserID == uuid.Nil {
		return nil, models.NewUnauthorizedError("Invalid user")
	}
	user, err := s.userRepo.GetByID(ctx, id.UserID)
	if err == nil {
		return user, nil
	}
	if models.ErrorCode(err) != models.CodeNotFound {
		return nil, err
	}

	shortID := strings.ReplaceAll(id.UserID.String(), "-", "")[:8]
	username := strings.TrimSpace(id.Username)
	if username == "" {
		username = "user_" + shortID
	}
	// A taken name falls back to one suffixed with the account id, so first
	// sight never fails permanently on a collision.
	candidates := []string{username, suffixedUsername(username, shortID)}
	for i, candidate := range candidates {
		err := s.userRepo.EnsureExists(ctx, &models.User{
			ID:                id.UserID,
			Username:          candidate,
			DisplayName:       username,
			Email:             id.Email,
			Theme:             models.ThemeSystem,
			MembershipTier:    models.TierFree,
			NotifyEmail:       true,
			NotifyPush:        true,
			NotifyKOLPosts:    true,
			NotifyPriceAlerts: true,
		})
		if err == nil {
			break
		}
		if models.ErrorCode(err) != models.CodeConflict || i == len(candidates)-1 {
			return nil, err
		}
	}
	return s.userRepo.GetByID(ctx, id.UserID)
}

func suffixedUsername(base, shortID string) string {
	suffix := "_" + shortID
	if len(base)+len(suffix) > maxUsernameLength {
		base = base[:maxUsernameLength-len(suffix)]
	}
	return base + suffix
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateSettings validates the whole patch before writing anything.
func (s *UserService) UpdateSettings(ctx context.Context, userID uuid.UUID, in models.SettingsUpdate) (*models.User, error) {
	if in.Phone != nil {
		trimmed := strings.TrimSpace(*in.Phone)
		in.Phone = &trimmed
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if in.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if in.Bio != nil {
		fields["bio"] = *in.Bio
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Theme != nil {
		fields["theme"] = *in.Theme
	}
	if in.NotifyEmail != nil {
		fields["notify_email"] = *in.NotifyEmail
	}
	if in.NotifyPush != nil {
		fields["notify_push"] = *in.NotifyPush
	}
	if in.NotifyKOLPosts != nil {
		fields["notify_kol_posts"] = *in.NotifyKOLPosts
	}
	if in.NotifyPriceAlerts != nil {
		fields["notify_price_alerts"] = *in.NotifyPriceAlerts
	}

	if err := s.userRepo.UpdateFields(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ProfileCard resolves a hover card by user id or username. Concurrent misses
// for the same key share one database round trip.
func (s *UserService) ProfileCard(ctx context.Context, idOrUsername string) (*models.ProfileCard, error) {
	ref := strings.TrimPrefix(strings.TrimSpace(idOrUsername), "@")
	if ref == "" {
		return nil, models.NewValidationError("user id or username is required")
	}
	key := cache.ProfileCardKey(ref)

	v, err, _ := s.cards.Do(key, func() (any, error) {
		var card models.ProfileCard
		err := cache.Aside(ctx, key, &card, s.cardTTL, func() error {
			user, err := s.lookup(ctx, ref)
			if err != nil {
				return err
			}
			card = user.ToProfileCard()
			if s.portfolioRepo != nil {
				settings, err := s.portfolioRepo.GetHoldingsSettings(ctx, user.ID)
				if err != nil {
					return err
				}
				card.HoldingsPublic = settings.IsPublic
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return &card, nil
	})
	if err != nil {
		return nil, err
	}
	card := *v.(*models.ProfileCard)
	return &card, nil
}

func (s *UserService) lookup(ctx context.Context, ref string) (*models.User, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return s.userRepo.GetByID(ctx, id)
	}
	user, err := s.userRepo.GetByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", ref)
	}
	return user, nil
}

// InvalidateCard drops cached hover cards for a user.
func (s *UserService) InvalidateCard(ctx context.Context, user *models.User) {
	if user == nil {
		return
	}
	cache.Invalidate(ctx, cache.ProfileCardKey(user.ID.String()), cache.ProfileCardKey(user.Username))
}
