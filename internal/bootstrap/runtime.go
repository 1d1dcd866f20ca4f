// Package bootstrap wires the process-wide runtime: database, Redis and optional demo data.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrDemoSeedInProduction is returned when demo seeding is requested against a production config.
var ErrDemoSeedInProduction = errors.New("demo seeding is disabled in production")

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo populates an empty database with generated accounts and activity.
	SeedDemo bool
	Seed     seed.Options
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := Prepare(ctx, cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, r, nil
}

// Prepare runs the post-connect steps on an already-open database.
// Demo seeding only touches a database without accounts.
func Prepare(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if !opts.SeedDemo {
		return nil
	}
	if cfg.IsProduction() {
		return ErrDemoSeedInProduction
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users > 0 {
		middleware.Logger.InfoContext(ctx, "demo seed skipped, database already has accounts",
			slog.Int64("users", users))
		return nil
	}

	seedOpts := opts.Seed
	if seedOpts.BcryptCost == 0 {
		seedOpts.BcryptCost = cfg.BcryptCost
	}
	seeder, err := seed.NewSeeder(db, seedOpts)
	if err != nil {
		return err
	}
	if _, err := seeder.Social(ctx); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return nil
}
