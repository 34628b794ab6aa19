package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"kolboard/internal/models"
	"kolboard/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them through the repositories,
// so follower and tracker counters stay consistent with the relation tables.
type Factory struct {
	users         repository.UserRepository
	follows       repository.FollowRepository
	kols          repository.KOLSubscriptionRepository
	stocks        repository.TrackedStockRepository
	notifications repository.NotificationRepository
	portfolio     repository.PortfolioRepository

	faker *gofakeit.Faker
	rng   *rand.Rand
	now   func() time.Time
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		users:         repository.NewUserRepository(db),
		follows:       repository.NewFollowRepository(db),
		kols:          repository.NewKOLSubscriptionRepository(db),
		stocks:        repository.NewTrackedStockRepository(db),
		notifications: repository.NewNotificationRepository(db),
		portfolio:     repository.NewPortfolioRepository(db),
		faker:         gofakeit.New(seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// BuildUser returns an unsaved user with generated profile fields.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	tiers := []models.MembershipTier{models.TierFree, models.TierFree, models.TierFree, models.TierPro, models.TierElite}
	user := &models.User{
		ID:             uuid.New(),
		Username:       f.username(first, last),
		DisplayName:    first + " " + last,
		Email:          strings.ToLower(first+"."+last) + "@example.com",
		Bio:            f.faker.Sentence(8),
		Theme:          models.ThemeSystem,
		MembershipTier: tiers[f.rng.Intn(len(tiers))],
		NotifyEmail:    f.faker.Bool(),
		NotifyPush:     f.faker.Bool(),
		NotifyKOLPosts: true,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

func (f *Factory) username(first, last string) string {
	formats := []string{"%s%s", "%s_%s", "%s%d"}
	switch format := formats[f.rng.Intn(len(formats))]; format {
	case "%s%d":
		return strings.ToLower(fmt.Sprintf(format, first, f.rng.Intn(10000)))
	default:
		return strings.ToLower(fmt.Sprintf(format, first, last))
	}
}

// CreateUser persists a generated user. Username collisions get a numeric suffix.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	base := user.Username
	for attempt := 0; attempt < 5; attempt++ {
		err := f.users.EnsureExists(ctx, user)
		if err == nil {
			return user, nil
		}
		if models.ErrorCode(err) != models.CodeConflict {
			return nil, err
		}
		user.Username = fmt.Sprintf("%s%d", base, f.rng.Intn(100000))
	}
	return nil, fmt.Errorf("could not find a free username for %s", base)
}

func (f *Factory) Follow(ctx context.Context, follower, followee *models.User) error {
	_, err := f.follows.Follow(ctx, follower.ID, followee.ID)
	return err
}

func (f *Factory) TrackKOL(ctx context.Context, user *models.User, kol FixtureKOL) error {
	platform := kol.Platform
	if platform == "" {
		platform = "twitter"
	}
	_, _, err := f.kols.Track(ctx, &models.KOLSubscription{
		UserID:      user.ID,
		Platform:    platform,
		KOLID:       kol.KOLID,
		KOLUsername: kol.Username,
		Notify:      true,
	})
	return err
}

func (f *Factory) TrackStock(ctx context.Context, user *models.User, symbol string) error {
	_, err := f.stocks.Track(ctx, &models.TrackedStock{
		UserID: user.ID,
		Symbol: strings.ToUpper(symbol),
		Notify: true,
	})
	return err
}

// CreateNotification stores a generated notification of a random type.
func (f *Factory) CreateNotification(ctx context.Context, user *models.User, symbols []string) (*models.Notification, error) {
	n := &models.Notification{
		UserID:    user.ID,
		Read:      f.rng.Intn(3) == 0,
		CreatedAt: f.recent(14),
	}
	switch f.rng.Intn(3) {
	case 0:
		n.Type = models.NotificationSystem
		n.Title = "Welcome to the dashboard"
		n.Message = f.faker.Sentence(10)
	case 1:
		if len(symbols) > 0 {
			symbol := symbols[f.rng.Intn(len(symbols))]
			n.Type = models.NotificationPriceAlert
			n.Title = fmt.Sprintf("%s moved %.1f%% today", symbol, f.faker.Float64Range(-8, 8))
			n.RelatedSymbol = &symbol
			break
		}
		fallthrough
	default:
		n.Type = models.NotificationKOLPost
		n.Title = "A KOL you track posted"
		n.Message = f.faker.Sentence(12)
	}
	if err := f.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// BuildAccount returns a generated brokerage account holding a few equities.
func (f *Factory) BuildAccount(user *models.User, symbols []string) models.BrokerageAccount {
	institutions := []string{"Robinhood", "Fidelity", "Schwab", "Interactive Brokers", "E*TRADE"}
	acct := models.BrokerageAccount{
		UserID:       user.ID,
		ExternalID:   "gen-" + f.faker.UUID(),
		Institution:  institutions[f.rng.Intn(len(institutions))],
		Name:         "Individual",
		NumberMasked: fmt.Sprintf("****%04d", f.rng.Intn(10000)),
		Currency:     "USD",
	}
	total := decimal.Zero
	for _, symbol := range pick(f.rng, symbols, 1+f.rng.Intn(4)) {
		price := decimal.NewFromFloat(f.faker.Float64Range(5, 600)).Round(2)
		cost := price.Mul(decimal.NewFromFloat(f.faker.Float64Range(0.6, 1.3))).Round(2)
		units := decimal.NewFromInt(int64(1 + f.rng.Intn(200)))
		acct.Positions = append(acct.Positions, models.Position{
			UserID:      user.ID,
			Symbol:      symbol,
			Kind:        models.PositionEquity,
			Units:       units,
			Price:       price,
			AverageCost: cost,
		})
		total = total.Add(units.Mul(price))
	}
	acct.TotalValue = total
	return acct
}

// ConnectPortfolio registers a fake aggregator user and stores the accounts as a completed sync.
func (f *Factory) ConnectPortfolio(ctx context.Context, user *models.User, accounts []models.BrokerageAccount, public bool) error {
	conn, err := f.portfolio.GetConnection(ctx, user.ID)
	if err != nil {
		return err
	}
	if conn == nil {
		if err := f.portfolio.CreateConnection(ctx, &models.SnapTradeConnection{
			UserID:          user.ID,
			SnapTradeUserID: "seed-" + user.ID.String(),
			RegisteredAt:    f.now().UTC(),
		}); err != nil {
			return err
		}
	}
	if err := f.portfolio.ReplaceHoldings(ctx, user.ID, accounts, f.now().UTC()); err != nil {
		return err
	}
	return f.portfolio.SetPublic(ctx, user.ID, public)
}

func (f *Factory) recent(maxDays int) time.Time {
	back := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute
	return f.now().Add(-back)
}

func pick[T any](rng *rand.Rand, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
