package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"memoria/internal/config"
	"memoria/internal/middleware"

	"gorm.io/gorm"
)

// Values accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

var protectedEnvs = []string{"production", "prod", "staging", "stage"}

// schemaPlan is the resolved answer to "how do we bring the board schema up".
type schemaPlan struct {
	mode      string
	env       string
	sql       bool
	auto      bool
	overrides bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{
		mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		env:  cfg.Env,
	}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
	}
	protected := slices.Contains(protectedEnvs, strings.ToLower(strings.TrimSpace(cfg.Env)))

	switch plan.mode {
	case SchemaModeSQL:
		plan.sql = true
	case SchemaModeHybrid:
		// Production only ever sees the versioned scripts.
		plan.sql, plan.auto = true, !protected
	case SchemaModeAuto:
		if protected && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.auto = true
		plan.overrides = protected
	default:
		return plan, fmt.Errorf("unknown DB_SCHEMA_MODE %q (want hybrid, sql or auto)", plan.mode)
	}
	return plan, nil
}

// SchemaStatus describes what ApplySchema would do against the current database.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// MissingTables lists board tables that do not exist yet.
	MissingTables []string
}

// ApplySchema brings the groups, posts, comments, tags and badge tables up to
// date using the SQL migrations, GORM AutoMigrate or both.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("apply sql migrations: %w", err)
		}
	}
	if plan.auto {
		if plan.overrides {
			middleware.Logger.Warn("AutoMigrate forced in a protected environment",
				slog.String("env", plan.env))
		}
		middleware.Logger.Info("AutoMigrate board models",
			slog.String("mode", plan.mode),
			slog.Int("models", len(PersistentModels())))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingTables(db); len(missing) > 0 {
		return fmt.Errorf("schema incomplete after %s apply, missing tables: %s",
			plan.mode, strings.Join(missing, ", "))
	}
	middleware.Logger.Info("Board schema ready", slog.String("mode", plan.mode))
	return nil
}

// GetSchemaStatus reports the plan, migration bookkeeping and absent tables
// without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        plan.env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.auto,
		MissingTables:      missingTables(db),
	}
	if !plan.sql {
		return status, nil
	}

	applied, err := newLedger(db).versions(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	for _, m := range GetMigrations() {
		if !slices.Contains(applied, m.Version) {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}

func missingTables(db *gorm.DB) []string {
	var missing []string
	for _, model := range PersistentModels() {
		if db.Migrator().HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			missing = append(missing, fmt.Sprintf("%T", model))
			continue
		}
		missing = append(missing, stmt.Schema.Table)
	}
	return missing
}
