package core

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
)

// Tx runs transaction inside a database transaction, committing when it
// returns nil and rolling back on error or panic.
func Tx(
	ctx context.Context,
	db *sql.DB,
	transaction func(context.Context, *sql.Tx) error,
) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		err = fmt.Errorf("transaction panicked with: %v", r)
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			err = errors.Wrapf(err, "rollback failed: %v", rollbackErr)
		}
	}()

	if err = transaction(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%s: %w", rollbackErr.Error(), err)
		}

		return err
	}

	return errors.Wrap(tx.Commit(), "commit transaction")
}
