// Command main fills a development database with demo groups.
package main

import (
	"context"
	"flag"
	"log"

	"memoria/internal/badge"
	"memoria/internal/config"
	"memoria/internal/database"
	"memoria/internal/repository"
	"memoria/internal/seed"
)

func main() {
	numGroups := flag.Int("groups", 12, "Number of groups to create")
	postsPerGroup := flag.Int("posts", 8, "Posts per group")
	commentsPerPost := flag.Int("comments", 3, "Comments per post")
	maxDays := flag.Int("days", 400, "How far back group creation dates may go")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build rows without writing them")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d groups x %d posts x %d comments, clean=%v\n",
		*numGroups, *postsPerGroup, *commentsPerPost, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close() }()

	ctx := context.Background()
	if err := seed.Badges(ctx, db); err != nil {
		log.Fatalf("❌ Badge catalog seeding failed: %v", err)
	}

	s, err := seed.NewSeeder(db, seed.Options{
		NumGroups:       *numGroups,
		PostsPerGroup:   *postsPerGroup,
		CommentsPerPost: *commentsPerPost,
		MaxDays:         *maxDays,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Seeder setup failed: %v", err)
	}

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	res, err := s.Seed(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("❌ Invalid BADGE_TIMEZONE: %v", err)
	}
	engine := badge.NewEngine(badge.Config{
		Stats:    repository.NewBadgeStatsRepository(db),
		Grants:   repository.NewBadgeRepository(db),
		Location: loc,
	})
	awarded, err := s.Backfill(ctx, engine)
	if err != nil {
		log.Fatalf("❌ Badge backfill failed: %v", err)
	}

	log.Printf("✨ Seeded %d groups, %d posts, %d comments; %d badges awarded\n",
		res.Groups, res.Posts, res.Comments, awarded)
	log.Printf("📧 Every group, post and comment uses the password: %s\n", seed.DemoPassword)
}
