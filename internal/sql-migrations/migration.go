package sqlmigration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/eskrenkovic/tql"
)

type Migration struct {
	Version    int    `db:"version"`
	Name       string `db:"name"`
	UpScript   string
	DownScript string
}

// Run applies the migrations found in dir of fsys that are newer than the
// last recorded version. Files follow version.name.up.sql and
// version.name.down.sql, both are required.
//
// The bookkeeping table DDL is written for sqlite, postgres goes through
// migrate-go instead.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	migrations, err := Load(fsys, dir)
	if err != nil {
		return err
	}

	if len(migrations) == 0 {
		return nil
	}

	if err := ensureMigrationsSchema(ctx, db); err != nil {
		return err
	}

	const q = `
		SELECT
			COALESCE(MAX(version), 0)
		FROM
			schema_migration;`
	lastAppliedMigrationVersion, err := tql.QueryFirst[int](ctx, db, q)
	if err != nil {
		return fmt.Errorf("failed fetching last applied version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= lastAppliedMigrationVersion {
			continue
		}

		if err := apply(ctx, db, migration); err != nil {
			return err
		}
	}

	return nil
}

// Load reads and orders the migrations in dir.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	byVersion := make(map[int]Migration)

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}

		parts := strings.Split(entry.Name(), ".")
		if len(parts) != 4 {
			continue
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid migration version in '%s': %w", entry.Name(), err)
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		m := byVersion[version]
		m.Version = version
		m.Name = parts[1]

		switch parts[2] {
		case "up":
			m.UpScript = string(content)
		case "down":
			m.DownScript = string(content)
		default:
			return nil, fmt.Errorf("unrecognized script type: '%s'", parts[2])
		}

		byVersion[version] = m
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.UpScript == "" {
			return nil, fmt.Errorf("failed to find 'up' script for '%s'", m.Name)
		}

		if m.DownScript == "" {
			return nil, fmt.Errorf("failed to find 'down' script for '%s'", m.Name)
		}

		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

func apply(ctx context.Context, db *sql.DB, migration Migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = fmt.Errorf("failed to roll back transaction: %s: %w", rollbackErr.Error(), err)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, migration.UpScript); err != nil {
		return fmt.Errorf("failed running migration '%s' up script: %w", migration.Name, err)
	}

	const stmt = `
		INSERT INTO
			schema_migration (version, name)
		VALUES
			(:version, :name);`
	params := map[string]any{"version": migration.Version, "name": migration.Name}
	if _, err = tql.Exec(ctx, tx, stmt, params); err != nil {
		return fmt.Errorf("failed inserting migration '%s' into 'schema_migration': %w", migration.Name, err)
	}

	return tx.Commit()
}

func ensureMigrationsSchema(ctx context.Context, db *sql.DB) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS schema_migration (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version INTEGER NOT NULL
		);`

	_, err := db.ExecContext(ctx, stmt)
	return err
}
