package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"memoria/internal/middleware"

	"gorm.io/gorm"
)

// SchemaVersion is one row of the ledger of applied SQL migrations.
type SchemaVersion struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaVersion) TableName() string { return "schema_versions" }

const createLedgerSQL = `
CREATE TABLE IF NOT EXISTS schema_versions (
	version    BIGINT PRIMARY KEY,
	name       VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

type ledger struct {
	db *gorm.DB
}

func newLedger(db *gorm.DB) ledger { return ledger{db: db} }

// versions returns applied versions in ascending order. A database that has
// never been migrated has no ledger table and reports none.
func (l ledger) versions(ctx context.Context) ([]int, error) {
	if !l.db.Migrator().HasTable(&SchemaVersion{}) {
		return []int{}, nil
	}
	var out []int
	err := l.db.WithContext(ctx).Model(&SchemaVersion{}).Order("version").Pluck("version", &out).Error
	if err != nil {
		return nil, fmt.Errorf("read schema_versions: %w", err)
	}
	return out, nil
}

// apply runs the up script and records the version atomically.
func (l ledger) apply(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("migration %s: %w", m.String(), err)
		}
		if err := tx.Create(&SchemaVersion{Version: m.Version, Name: m.Name}).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

// revert runs the down script and drops the version from the ledger atomically.
func (l ledger) revert(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", m.String(), err)
		}
		res := tx.Where("version = ?", m.Version).Delete(&SchemaVersion{})
		if res.Error != nil {
			return fmt.Errorf("unrecord migration %s: %w", m.String(), res.Error)
		}
		return nil
	})
}

// RunMigrations applies every registered migration missing from the ledger,
// oldest first.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).Exec(createLedgerSQL).Error; err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	l := newLedger(db)
	applied, err := l.versions(ctx)
	if err != nil {
		return err
	}
	if err := checkLedger(applied, migrations); err != nil {
		return err
	}

	ran := 0
	for _, m := range migrations {
		if slices.Contains(applied, m.Version) {
			continue
		}
		if err := l.apply(ctx, m); err != nil {
			return err
		}
		ran++
		middleware.Logger.Info("Migration applied", slog.String("migration", m.String()))
	}
	middleware.Logger.Info("Schema migrations complete",
		slog.Int("applied_now", ran), slog.Int("total", len(migrations)))
	return nil
}

// checkLedger rejects a database that carries versions this binary does not
// know about, which usually means it was migrated by a newer build.
func checkLedger(applied []int, registered []Migration) error {
	var unknown []string
	for _, v := range applied {
		if !slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == v }) {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return fmt.Errorf("schema_versions has versions this build does not ship: %s", strings.Join(unknown, ", "))
}

// RollbackMigration reverts one applied migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	l := newLedger(db)
	applied, err := l.versions(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", m.String()))
	return l.revert(ctx, *m)
}
