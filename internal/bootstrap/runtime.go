// Package bootstrap wires the runtime dependencies shared by the command-line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"kolboard/internal/cache"
	"kolboard/internal/config"
	"kolboard/internal/database"
	"kolboard/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo applies the built-in demo fixture. Ignored outside development.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds the demo accounts.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDemoAccounts(ctx, cfg, db, opts); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap demo accounts: %w", err)
	}
	return db, r, nil
}

func ensureDemoAccounts(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if cfg == nil || db == nil || !opts.SeedDemo {
		return nil
	}
	if cfg.Env != "development" {
		log.Printf("skipping demo accounts outside development (APP_ENV=%s)", cfg.Env)
		return nil
	}

	fixture, err := seed.DemoFixture()
	if err != nil {
		return err
	}
	users, err := seed.NewSeeder(db, seed.Options{}).ApplyFixture(ctx, fixture)
	if err != nil {
		return err
	}
	log.Printf("development demo accounts ensured (%d users)", len(users))
	return nil
}
