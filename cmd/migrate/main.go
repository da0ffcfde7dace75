// Command migrate manages the board schema and the badge catalog.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"memoria/internal/config"
	"memoria/internal/database"
	"memoria/internal/seed"

	"gorm.io/gorm"
)

type command struct {
	help string
	run  func(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"up":     {"apply pending SQL migrations and install the badge catalog", migrateUp},
	"auto":   {"AutoMigrate every board model and install the badge catalog", migrateAuto},
	"status": {"print the schema plan, pending migrations and missing tables", schemaStatus},
	"down":   {"roll back a single migration: down <version>", migrateDown},
	"badges": {"(re)install the badge catalog only", installBadges},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	var b strings.Builder
	b.WriteString("usage: go run ./cmd/migrate <command> [args]\n")
	for _, name := range []string{"up", "auto", "status", "down", "badges"} {
		fmt.Fprintf(&b, "  %-7s %s\n", name, commands[name].help)
	}
	return fmt.Errorf("%s", strings.TrimRight(b.String(), "\n"))
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = database.Close() }()

	return cmd.run(context.Background(), db, cfg, flag.Args()[1:])
}

func migrateUp(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations: %w", err)
	}
	log.Println("sql migrations applied")
	return installBadges(ctx, db, cfg, nil)
}

func migrateAuto(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply: %w", err)
	}
	log.Println("board models migrated")
	return installBadges(ctx, db, cfg, nil)
}

func schemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}
	log.Printf("mode=%s env=%s sql=%t auto=%t applied=%d pending=%d missing=%d",
		status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
		len(status.AppliedVersions), len(status.PendingMigrations), len(status.MissingTables))
	for _, m := range status.PendingMigrations {
		log.Printf("pending migration %s", m.String())
	}
	for _, table := range status.MissingTables {
		log.Printf("missing table %s", table)
	}
	return nil
}

func migrateDown(ctx context.Context, db *gorm.DB, _ *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("down needs a migration version")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback %d: %w", version, err)
	}
	log.Printf("rolled back migration %d", version)
	return nil
}

func installBadges(ctx context.Context, db *gorm.DB, _ *config.Config, _ []string) error {
	if err := seed.Badges(ctx, db); err != nil {
		return fmt.Errorf("install badge catalog: %w", err)
	}
	log.Println("badge catalog installed")
	return nil
}
