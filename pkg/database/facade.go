package database

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/pkg/actor"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
)

// Facade is the tenant-scoped query surface every repository in this module
// is built on. It hides the WithSession/WithUnscopedSession ceremony behind
// four verbs: Query and Tx read the tenant out of ctx and scope the
// statement via RLS; UnscopedQuery and UnscopedTx skip tenant scoping
// entirely and are reserved for platform-owner code paths that have
// already cleared an authorization check upstream.
type Facade struct {
	db *DB
}

// NewFacade wraps a DB in the tenant-scoped query surface.
func NewFacade(db *DB) *Facade {
	return &Facade{db: db}
}

func actorID(ctx context.Context) string {
	if a := actor.FromContext(ctx); a != nil {
		return a.ID
	}
	return ""
}

// Query runs fn against a transaction scoped to the tenant and user found in
// ctx. Returns an error if ctx carries no resolvable tenant.
func (f *Facade) Query(ctx context.Context, fn func(context.Context) error) error {
	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return err
	}
	return f.db.WithSession(ctx, tenantID, actorID(ctx), fn)
}

// Tx is an alias of Query kept for readability at call sites that are
// explicitly doing multi-statement writes rather than a single read.
func (f *Facade) Tx(ctx context.Context, fn func(context.Context) error) error {
	return f.Query(ctx, fn)
}

// UnscopedQuery runs fn against a transaction with no tenant predicate
// applied. Callers must have already authorized the platform-owner escape
// hatch (see internal/authz) before reaching for this method.
func (f *Facade) UnscopedQuery(ctx context.Context, fn func(context.Context) error) error {
	return f.db.WithUnscopedSession(ctx, actorID(ctx), fn)
}

// UnscopedTx is an alias of UnscopedQuery kept for readability at call
// sites doing multi-statement writes.
func (f *Facade) UnscopedTx(ctx context.Context, fn func(context.Context) error) error {
	return f.UnscopedQuery(ctx, fn)
}

// Get is a convenience wrapper combining Query with a single-row fetch.
func (f *Facade) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return f.Query(ctx, func(ctx context.Context) error {
		return f.db.GetContext(ctx, dest, query, args...)
	})
}

// Select is a convenience wrapper combining Query with a multi-row fetch.
func (f *Facade) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return f.Query(ctx, func(ctx context.Context) error {
		return f.db.SelectContext(ctx, dest, query, args...)
	})
}

// Exec is a convenience wrapper combining Tx with a single statement.
func (f *Facade) Exec(ctx context.Context, query string, args ...interface{}) error {
	return f.Tx(ctx, func(ctx context.Context) error {
		_, err := f.db.ExecContext(ctx, query, args...)
		return err
	})
}

// DB exposes the underlying connection for callers (migrations, health
// checks) that genuinely need an unwrapped handle.
func (f *Facade) DB() *DB {
	return f.db
}
