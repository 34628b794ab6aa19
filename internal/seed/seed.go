// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"

	"kolboard/internal/models"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	// Community is the number of generated users added next to the fixture users.
	Community int
	// Seed makes generated data reproducible. Zero picks a random seed.
	Seed  int64
	Clean bool
}

// Seeder applies fixtures and generated data to a database.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts.Seed)}
}

// Run seeds fixture users, then a generated community around them.
func (s *Seeder) Run(ctx context.Context, fixture *Fixture, opts Options) error {
	if opts.Clean {
		if err := s.ClearAll(ctx); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}
	users, err := s.ApplyFixture(ctx, fixture)
	if err != nil {
		return fmt.Errorf("apply fixture: %w", err)
	}
	log.Printf("✓ %d fixture users ready", len(users))

	if opts.Community > 0 {
		generated, err := s.SeedCommunity(ctx, fixture, users, opts.Community)
		if err != nil {
			return fmt.Errorf("seed community: %w", err)
		}
		log.Printf("✓ %d community users created", len(generated))
	}
	return nil
}

// ClearAll removes every row the application owns, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []any{
		&models.Position{},
		&models.BrokerageAccount{},
		&models.SnapTradeConnection{},
		&models.HoldingsSettings{},
		&models.PrivacySettings{},
		&models.Notification{},
		&models.KOLSubscription{},
		&models.KOLStat{},
		&models.TrackedStock{},
		&models.Follow{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyFixture upserts the fixture users and their relations. Applying the
// same fixture twice leaves counters unchanged.
func (s *Seeder) ApplyFixture(ctx context.Context, fixture *Fixture) (map[string]*models.User, error) {
	f := s.factory
	users := make(map[string]*models.User, len(fixture.Users))
	for _, fu := range fixture.Users {
		user := fu.model()
		if err := f.users.EnsureExists(ctx, user); err != nil {
			return nil, fmt.Errorf("user %s: %w", fu.Username, err)
		}
		users[strings.ToLower(fu.Username)] = user
	}

	for _, fu := range fixture.Users {
		user := users[strings.ToLower(fu.Username)]
		for _, target := range fu.Follows {
			if err := f.Follow(ctx, user, users[strings.ToLower(target)]); err != nil {
				return nil, fmt.Errorf("%s follows %s: %w", fu.Username, target, err)
			}
		}
		for _, kol := range fu.TrackKOLs {
			if err := f.TrackKOL(ctx, user, kol); err != nil {
				return nil, fmt.Errorf("%s tracks %s: %w", fu.Username, kol.KOLID, err)
			}
		}
		for _, symbol := range fu.TrackStocks {
			if err := f.TrackStock(ctx, user, symbol); err != nil {
				return nil, fmt.Errorf("%s tracks %s: %w", fu.Username, symbol, err)
			}
		}
		if len(fu.Accounts) == 0 {
			continue
		}
		accounts := make([]models.BrokerageAccount, 0, len(fu.Accounts))
		for _, fa := range fu.Accounts {
			acct, err := fa.model(user.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", fu.Username, err)
			}
			accounts = append(accounts, acct)
		}
		if err := f.ConnectPortfolio(ctx, user, accounts, fu.HoldingsPublic); err != nil {
			return nil, fmt.Errorf("%s portfolio: %w", fu.Username, err)
		}
	}
	return users, nil
}

// SeedCommunity creates n generated users who follow each other and the
// fixture users, track KOLs and tickers from the fixture pools, and hold a
// synced portfolio about half of the time.
func (s *Seeder) SeedCommunity(ctx context.Context, fixture *Fixture, anchors map[string]*models.User, n int) ([]*models.User, error) {
	f := s.factory
	created := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return created, err
		}
		created = append(created, user)
	}

	pool := make([]*models.User, 0, len(created)+len(anchors))
	pool = append(pool, created...)
	for _, u := range anchors {
		pool = append(pool, u)
	}

	for _, user := range created {
		for _, target := range pick(f.rng, pool, 1+f.rng.Intn(5)) {
			if target.ID == user.ID {
				continue
			}
			if err := f.Follow(ctx, user, target); err != nil {
				return created, err
			}
		}
		for _, kol := range pick(f.rng, fixture.KOLs, f.rng.Intn(3)) {
			if err := f.TrackKOL(ctx, user, kol); err != nil {
				return created, err
			}
		}
		for _, symbol := range pick(f.rng, fixture.Tickers, f.rng.Intn(5)) {
			if err := f.TrackStock(ctx, user, symbol); err != nil {
				return created, err
			}
		}
		for j := f.rng.Intn(4); j > 0; j-- {
			if _, err := f.CreateNotification(ctx, user, fixture.Tickers); err != nil {
				return created, err
			}
		}
		if len(fixture.Tickers) > 0 && f.rng.Intn(2) == 0 {
			acct := f.BuildAccount(user, fixture.Tickers)
			if err := f.ConnectPortfolio(ctx, user, []models.BrokerageAccount{acct}, f.rng.Intn(3) > 0); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
