package database

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strconv"
	"strings"

	"memoria/internal/middleware"
)

// Migration is one versioned pair of up/down SQL scripts.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrations is kept sorted by Version.
var migrations []Migration

func init() {
	if err := RegisterMigrations(migrationFS); err != nil {
		fmt.Printf("failed to register internal migrations: %v\n", err)
	}
}

// parseMigrationFile splits "000002_badges.up.sql" into 2 and "badges".
func parseMigrationFile(file string) (int, string, bool) {
	base, ok := strings.CutSuffix(path.Base(file), ".up.sql")
	if !ok {
		return 0, "", false
	}
	digits, label, ok := strings.Cut(base, "_")
	version, err := strconv.Atoi(digits)
	if !ok || err != nil || version <= 0 || label == "" {
		return 0, "", false
	}
	return version, label, true
}

// RegisterMigrations loads every migrations/NNNNNN_label.up.sql from fsys
// together with its .down.sql twin. Registering a version again replaces it.
func RegisterMigrations(fsys fs.FS) error {
	ups, err := fs.Glob(fsys, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, up := range ups {
		version, label, ok := parseMigrationFile(up)
		if !ok {
			middleware.Logger.Warn("Ignoring migration with unexpected name", slog.String("file", up))
			continue
		}
		upSQL, err := fs.ReadFile(fsys, up)
		if err != nil {
			return fmt.Errorf("read %s: %w", up, err)
		}
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		downSQL, err := fs.ReadFile(fsys, down)
		if err != nil {
			return fmt.Errorf("migration %06d_%s has no down script: %w", version, label, err)
		}

		m := Migration{Version: version, Name: label, UpScript: string(upSQL), DownScript: string(downSQL)}
		if i := indexOfVersion(version); i >= 0 {
			migrations[i] = m
		} else {
			migrations = append(migrations, m)
		}
	}

	slices.SortFunc(migrations, func(a, b Migration) int { return a.Version - b.Version })
	return nil
}

func indexOfVersion(version int) int {
	return slices.IndexFunc(migrations, func(m Migration) bool { return m.Version == version })
}

// GetMigrations returns the registered migrations in version order.
func GetMigrations() []Migration {
	return migrations
}

// GetMigrationByVersion returns nil when version is not registered.
func GetMigrationByVersion(version int) *Migration {
	if i := indexOfVersion(version); i >= 0 {
		m := migrations[i]
		return &m
	}
	return nil
}

func (m *Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}
