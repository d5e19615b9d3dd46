package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/schoolflow/schoolflow-backend/internal/authz"
	"github.com/schoolflow/schoolflow-backend/internal/platform/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

// TenantRepository persists the Tenant entity. Every method runs unscoped:
// the tenants table has no tenantId column of its own — it is the table
// every other tenant-scoped row resolves against.
type TenantRepository struct {
	db *database.Facade
}

// NewTenantRepository creates a TenantRepository.
func NewTenantRepository(db *database.Facade) *TenantRepository {
	return &TenantRepository{db: db}
}

// Create inserts a new tenant with status active.
func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	t.ID = uuid.New().String()
	if t.Status == "" {
		t.Status = domain.TenantStatusActive
	}

	query := `
		INSERT INTO tenants (id, slug, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		row := r.db.DB().QueryRowxContext(ctx, query, t.ID, t.Slug, t.Name, t.Status)
		if err := row.Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		return nil
	})
}

// GetByID fetches a tenant by ID, excluding soft-deleted rows.
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	query := `SELECT * FROM tenants WHERE id = $1 AND deleted_at IS NULL`

	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		return r.db.DB().GetContext(ctx, &t, query, id)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}

// GetBySlug fetches a tenant by its subdomain slug.
func (r *TenantRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var t domain.Tenant
	query := `SELECT * FROM tenants WHERE slug = $1 AND deleted_at IS NULL`

	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		return r.db.DB().GetContext(ctx, &t, query, slug)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("tenant")
		}
		return nil, err
	}
	return &t, nil
}

// List returns every non-deleted tenant, paginated. Platform-owner only.
func (r *TenantRepository) List(ctx context.Context, page, perPage int) ([]*domain.Tenant, int64, error) {
	tenants := []*domain.Tenant{}
	var total int64
	offset := (page - 1) * perPage

	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		if err := r.db.DB().GetContext(ctx, &total, `SELECT COUNT(*) FROM tenants WHERE deleted_at IS NULL`); err != nil {
			return err
		}
		return r.db.DB().SelectContext(ctx, &tenants,
			`SELECT * FROM tenants WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			perPage, offset)
	})
	if err != nil {
		return nil, 0, err
	}
	return tenants, total, nil
}

// UpdateStatus transitions a tenant between active/suspended/deleted.
func (r *TenantRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE tenants SET status = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		result, err := r.db.DB().ExecContext(ctx, query, id, status)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("tenant")
		}
		return nil
	})
}

// SoftDelete marks a tenant deleted. Existing sessions fail tenant
// resolution on their next request once the authz pipeline re-checks
// tenant status; already-cached permission entries expire within the TTL.
func (r *TenantRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE tenants SET status = $2, deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		result, err := r.db.DB().ExecContext(ctx, query, id, domain.TenantStatusDeleted)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return errors.NotFound("tenant")
		}
		return nil
	})
}

// TenantIDForSlug satisfies pkg/tenant.Lookup for the resolver's subdomain
// path.
func (r *TenantRepository) TenantIDForSlug(ctx context.Context, slug string) (string, bool, error) {
	var t domain.Tenant
	query := `SELECT * FROM tenants WHERE slug = $1 AND deleted_at IS NULL`

	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		return r.db.DB().GetContext(ctx, &t, query, slug)
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return t.ID, t.IsActive(), nil
}

// GetTenant satisfies internal/authz.TenantStore.
func (r *TenantRepository) GetTenant(ctx context.Context, tenantID string) (authz.TenantRecord, error) {
	t, err := r.GetByID(ctx, tenantID)
	if err != nil {
		return authz.TenantRecord{}, err
	}
	return authz.TenantRecord{ID: t.ID, Slug: t.Slug, Active: t.IsActive()}, nil
}
