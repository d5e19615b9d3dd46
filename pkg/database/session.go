package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

type txKey struct{}

// uuidPattern validates that a session-variable value is a well-formed UUID
// before it is interpolated into a SET LOCAL statement. SET LOCAL does not
// support parameterized queries, so this check is what keeps the statement
// free of injectable user input; tenantID/userID reaching this function are
// expected to already be server-generated UUIDs, never raw request fields.
var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// WithSession executes fn inside a transaction with app.current_tenant and
// app.current_user set as session-local variables, so RLS policies scope
// every statement fn issues to the given tenant.
//
// Usage in repositories:
//
//	return r.db.WithSession(ctx, tenantID, userID, func(ctx context.Context) error {
//	    return r.db.GetContext(ctx, &class, "SELECT * FROM classes WHERE id = $1", id)
//	})
//
// SET LOCAL is transaction-scoped, so even on a pooled connection handed
// back to the pool between requests, the next caller starts with a clean
// session — there is no cross-request variable leakage to guard against.
func (db *DB) WithSession(ctx context.Context, tenantID, userID string, fn func(context.Context) error) error {
	if !uuidPattern.MatchString(tenantID) {
		return fmt.Errorf("invalid tenant id for session scope: %q", tenantID)
	}
	if userID != "" && !uuidPattern.MatchString(userID) {
		return fmt.Errorf("invalid user id for session scope: %q", userID)
	}

	return db.transactionWithSetup(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_tenant = '%s'", tenantID)); err != nil {
			return fmt.Errorf("failed to set app.current_tenant: %w", err)
		}
		if userID != "" {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_user = '%s'", userID)); err != nil {
				return fmt.Errorf("failed to set app.current_user: %w", err)
			}
		}
		return nil
	}, fn)
}

// WithUnscopedSession executes fn inside a transaction with only
// app.current_user set, and app.current_tenant left unset. RLS policies are
// written to grant full visibility when the platform-owner predicate holds
// (see pkg/permissions), so this path is reserved for actors who have
// already cleared that check — callers must verify platform ownership
// before reaching for this method.
func (db *DB) WithUnscopedSession(ctx context.Context, userID string, fn func(context.Context) error) error {
	if userID != "" && !uuidPattern.MatchString(userID) {
		return fmt.Errorf("invalid user id for session scope: %q", userID)
	}

	return db.transactionWithSetup(ctx, func(tx *sqlx.Tx) error {
		if userID != "" {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.current_user = '%s'", userID)); err != nil {
				return fmt.Errorf("failed to set app.current_user: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "SET LOCAL app.platform_owner = 'on'"); err != nil {
			return fmt.Errorf("failed to set app.platform_owner: %w", err)
		}
		return nil
	}, fn)
}

// transactionWithSetup begins a transaction, runs setup to install session
// variables, then runs fn with the transaction attached to the context.
func (db *DB) transactionWithSetup(ctx context.Context, setup func(*sqlx.Tx) error, fn func(context.Context) error) error {
	tx, err := db.beginTx(ctx)
	if err != nil {
		return err
	}

	if err := setup(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// getTx extracts transaction from context if present
func (db *DB) getTx(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

func backpressureErr(cause error) error {
	return fmt.Errorf("%w: %v", errors.Backpressure(), cause)
}
