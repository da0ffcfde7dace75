package seed

import (
	"context"
	"fmt"
	"log/slog"

	"memoria/internal/badge"
	"memoria/internal/middleware"
	"memoria/internal/models"
	"memoria/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configure the demo seeder.
type Options struct {
	NumGroups       int
	PostsPerGroup   int
	CommentsPerPost int
	// MaxDays bounds how far back group creation dates go.
	MaxDays int
	// DryRun builds rows with synthetic IDs without touching the database.
	DryRun     bool
	RandomSeed int64
}

// Result counts the rows a seeding run produced.
type Result struct {
	Groups   int
	Posts    int
	Comments int
}

// Seeder fills a database with demo content.
type Seeder struct {
	db       *gorm.DB
	factory  *Factory
	opts     Options
	groupIDs []uint
}

// NewSeeder creates a Seeder. The demo password is hashed with the default
// bcrypt cost so seeded rows verify exactly like API-created ones.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	return newSeeder(db, opts, bcrypt.DefaultCost)
}

func newSeeder(db *gorm.DB, opts Options, cost int) (*Seeder, error) {
	f, err := NewFactory(db, opts, cost)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, factory: f, opts: opts}, nil
}

// Badges installs the badge catalog. Existing rows are left untouched.
func Badges(ctx context.Context, db *gorm.DB) error {
	if err := repository.NewBadgeRepository(db).EnsureCatalog(ctx, badge.Catalog()); err != nil {
		return fmt.Errorf("seed badge catalog: %w", err)
	}
	return nil
}

// ClearAll removes every group and its content. The badge catalog stays.
func (s *Seeder) ClearAll(ctx context.Context) error {
	if s.opts.DryRun {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.PostTag{}, &models.Comment{}, &models.Post{},
			&models.GroupBadge{}, &models.Tag{}, &models.Group{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// Seed creates the configured number of groups, each with posts and comments.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	var res Result
	for i := 0; i < s.opts.NumGroups; i++ {
		group, err := s.factory.CreateGroup()
		if err != nil {
			return res, err
		}
		res.Groups++
		s.groupIDs = append(s.groupIDs, group.ID)

		for j := 0; j < s.opts.PostsPerGroup; j++ {
			post, err := s.factory.CreatePost(ctx, group)
			if err != nil {
				return res, err
			}
			res.Posts++

			for k := 0; k < s.opts.CommentsPerPost; k++ {
				if _, err := s.factory.CreateComment(post); err != nil {
					return res, err
				}
				res.Comments++
			}
		}
		middleware.Logger.Debug("seeded group",
			slog.Uint64("group_id", uint64(group.ID)),
			slog.String("name", group.Name),
		)
	}
	middleware.Logger.Info("demo data seeded",
		slog.Int("groups", res.Groups),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// Backfill evaluates the group-scoped badges of every seeded group. Seeded
// rows bypass the request triggers, so without it no group would hold a badge.
func (s *Seeder) Backfill(ctx context.Context, engine *badge.Engine) (int, error) {
	if s.opts.DryRun {
		return 0, nil
	}
	awarded := 0
	for _, id := range s.groupIDs {
		for _, kind := range []badge.Kind{badge.ConsecutiveDays, badge.PostCount, badge.GroupAge, badge.GroupLikes} {
			created, err := engine.EvaluateAndAward(ctx, id, kind)
			if err != nil {
				return awarded, fmt.Errorf("backfill %s for group %d: %w", kind, id, err)
			}
			if created {
				awarded++
			}
		}
	}
	return awarded, nil
}
