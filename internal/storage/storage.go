package storage

import (
	"context"
	"fmt"
	"strings"

	gamesession "github.com/eskrenkovic/turn-tracker/internal/modules/game-session/domain"
	notifications "github.com/eskrenkovic/turn-tracker/internal/modules/notifications/domain"
	"github.com/eskrenkovic/turn-tracker/internal/storage/memory"
	"github.com/eskrenkovic/turn-tracker/internal/storage/redisstore"
	"github.com/eskrenkovic/turn-tracker/internal/storage/sqlstore"

	"go.uber.org/zap"
)

// Store is the persistence collaborator for every module.
type Store interface {
	gamesession.Repository
	notifications.Repository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*redisstore.Store)(nil)
)

// Open picks the backend from the scheme of databaseURL: memory://,
// postgres:// (or postgresql://), sqlite://<path> and redis:// (or rediss://).
// SQL schemas are migrated before the store is returned.
func Open(ctx context.Context, databaseURL, migrationsPath string, logger *zap.Logger) (Store, error) {
	scheme, rest, _ := strings.Cut(databaseURL, "://")

	switch strings.ToLower(scheme) {
	case "", "memory":
		logger.Warn("using in-memory storage, state is lost on restart")
		return memory.New(), nil

	case "postgres", "postgresql":
		return openSQL(ctx, sqlstore.DriverPostgres, databaseURL, migrationsPath)

	case "sqlite", "sqlite3":
		return openSQL(ctx, sqlstore.DriverSQLite, SQLiteDSN(rest), migrationsPath)

	case "redis", "rediss":
		return redisstore.Open(ctx, databaseURL)

	default:
		return nil, fmt.Errorf("unsupported database url scheme '%s'", scheme)
	}
}

func openSQL(ctx context.Context, driver, dsn, migrationsPath string) (Store, error) {
	store, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx, migrationsPath); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// SQLiteDSN turns a file path (or :memory:) into a go-sqlite3 DSN with
// foreign keys, a busy timeout and immediate write transactions.
func SQLiteDSN(path string) string {
	const params = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"

	if path == "" || path == ":memory:" {
		return "file::memory:?" + params
	}

	if strings.Contains(path, "?") {
		return "file:" + path + "&" + params
	}

	return "file:" + path + "?" + params
}
