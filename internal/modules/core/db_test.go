package core_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/eskrenkovic/turn-tracker/internal/modules/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openCounterDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "tx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE counter (value INTEGER NOT NULL); INSERT INTO counter (value) VALUES (0);`)
	require.NoError(t, err)

	return db
}

func counterValue(t *testing.T, db *sql.DB) int {
	t.Helper()

	var value int
	require.NoError(t, db.QueryRow(`SELECT value FROM counter`).Scan(&value))

	return value
}

func increment(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `UPDATE counter SET value = value + 1`)
	return err
}

func Test_Tx_Commits_On_Success(t *testing.T) {
	// Arrange
	db := openCounterDB(t)

	// Act
	err := core.Tx(context.Background(), db, increment)

	// Assert
	require.NoError(t, err)
	require.Equal(t, 1, counterValue(t, db))
}

func Test_Tx_Rolls_Back_On_Error(t *testing.T) {
	// Arrange
	db := openCounterDB(t)
	failure := errors.New("turn moved on")

	// Act
	err := core.Tx(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		if err := increment(ctx, tx); err != nil {
			return err
		}
		return failure
	})

	// Assert
	require.ErrorIs(t, err, failure)
	require.Equal(t, 0, counterValue(t, db))
}

func Test_Tx_Rolls_Back_On_Panic(t *testing.T) {
	// Arrange
	db := openCounterDB(t)

	// Act
	err := core.Tx(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		_ = increment(ctx, tx)
		panic("unexpected")
	})

	// Assert
	require.ErrorContains(t, err, "transaction panicked with: unexpected")
	require.Equal(t, 0, counterValue(t, db))
}
