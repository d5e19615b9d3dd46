package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
)

// TestTenant represents a tenant row created for testing. Schoolflow runs
// every tenant through the same shared schema (container.go's
// CreatePublicSchema creates it once); a test tenant is nothing more than
// a row in public.tenants plus the RLS session variables that scope
// queries to it.
type TestTenant struct {
	ID   string
	Name string
	Slug string
}

// TenantManager creates and tears down test tenant rows.
type TenantManager struct {
	db      *sqlx.DB
	tenants []TestTenant
	mu      sync.Mutex
}

// NewTenantManager creates a new tenant manager for tests.
func NewTenantManager(db *sqlx.DB) *TenantManager {
	return &TenantManager{
		db:      db,
		tenants: make([]TestTenant, 0),
	}
}

// CreateTenant inserts a new active tenant row for a test to run under.
//
// Usage:
//
//	tm := testutil.NewTenantManager(db)
//	tenant, _ := tm.CreateTenant(ctx, "test-school")
//	ctx = testutil.WithTestTenant(ctx, tenant)
//	user, err := userRepo.GetByID(ctx, userID)
func (tm *TenantManager) CreateTenant(ctx context.Context, name string) (*TestTenant, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := uuid.New().String()
	slug := fmt.Sprintf("%s-%s", strings.ToLower(strings.ReplaceAll(name, " ", "-")), id[:8])

	_, err := tm.db.ExecContext(ctx, `
		INSERT INTO public.tenants (id, name, slug, status)
		VALUES ($1, $2, $3, 'active')
		ON CONFLICT (slug) DO NOTHING
	`, id, name, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tenant row: %w", err)
	}

	t := TestTenant{ID: id, Name: name, Slug: slug}
	tm.tenants = append(tm.tenants, t)
	return &t, nil
}

// DropTenant deletes a tenant row. Only public.user_tenant_lookup cascades
// on delete in container.go's schema; the other tenant_id foreign keys do
// not, so the delete fails while rows in those tables still reference it.
func (tm *TenantManager) DropTenant(ctx context.Context, t *TestTenant) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	_, err := tm.db.ExecContext(ctx, "DELETE FROM public.tenants WHERE id = $1", t.ID)
	if err != nil {
		return fmt.Errorf("failed to delete tenant row: %w", err)
	}

	for i, tracked := range tm.tenants {
		if tracked.ID == t.ID {
			tm.tenants = append(tm.tenants[:i], tm.tenants[i+1:]...)
			break
		}
	}
	return nil
}

// Cleanup deletes every tenant row created by this manager.
func (tm *TenantManager) Cleanup(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var lastErr error
	for _, t := range tm.tenants {
		if _, err := tm.db.ExecContext(ctx, "DELETE FROM public.tenants WHERE id = $1", t.ID); err != nil {
			lastErr = err
		}
	}
	tm.tenants = make([]TestTenant, 0)
	return lastErr
}

// WithTestTenant attaches a test tenant's context, the primary way tests
// set up tenant scoping.
func WithTestTenant(ctx context.Context, t *TestTenant) context.Context {
	return tenant.WithTenantContext(ctx, t.ID, t.Slug)
}

// WithTestTenantValues attaches custom tenant values, useful for testing
// error cases or edge conditions that don't need a real database row.
func WithTestTenantValues(ctx context.Context, id, slug string) context.Context {
	return tenant.WithTenantContext(ctx, id, slug)
}

// TestTenantContext returns a context carrying a fake tenant, for unit
// tests that don't touch the database.
func TestTenantContext() context.Context {
	return tenant.WithTenantContext(context.Background(), "test-tenant-id", "test-tenant")
}
