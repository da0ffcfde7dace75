// Package bootstrap wires the process-wide dependencies shared by the
// server and the maintenance commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"memoria/internal/cache"
	"memoria/internal/config"
	"memoria/internal/database"
	"memoria/internal/middleware"
	"memoria/internal/models"
	"memoria/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedBadges installs the badge catalog after the schema is applied.
	SeedBadges bool
	// SeedDemo fills an empty development database with demo groups.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis. Redis is optional: when it
// is unreachable the returned client is nil and the API runs without cache
// or cross-instance fan-out.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	var rdb *redis.Client
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cache.InitRedis(cfg.RedisURL)
		rdb = cache.GetClient()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if opts.SeedBadges {
		if err := seed.Badges(ctx, db); err != nil {
			return nil, nil, err
		}
	}
	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("seed demo data: %w", err)
		}
	}
	return db, rdb, nil
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		middleware.Logger.Warn("SEED_DEMO_DATA ignored in production")
		return nil
	}
	var groups int64
	if err := db.WithContext(ctx).Model(&models.Group{}).Count(&groups).Error; err != nil {
		return err
	}
	if groups > 0 {
		middleware.Logger.Info("demo seed skipped, groups already exist", slog.Int64("groups", groups))
		return nil
	}

	s, err := seed.NewSeeder(db, seed.Options{NumGroups: 12, PostsPerGroup: 8, CommentsPerPost: 3})
	if err != nil {
		return err
	}
	_, err = s.Seed(ctx)
	return err
}
