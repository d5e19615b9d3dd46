package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/schoolflow/schoolflow-backend/internal/users/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
)

// UserRepository handles user persistence. Tenant-scoped methods run
// through Facade.Query/Tx, which reads the tenant and actor out of ctx and
// wraps the statement in the SET LOCAL session RLS depends on. Methods that
// must cross tenant boundaries (email lookup during login, profile updates
// by a caller who has already cleared authorization) go through
// UnscopedQuery/UnscopedTx instead.
type UserRepository struct {
	db *database.Facade
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.Facade) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row. The row itself carries no tenant_id;
// tenant membership is granted separately through UserRole.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO users (id, email, password_hash, first_name, last_name, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at, version
		`
		row := r.db.DB().QueryRowxContext(ctx, query,
			user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsActive,
		)
		if err := row.Scan(&user.CreatedAt, &user.UpdatedAt, &user.Version); err != nil {
			return database.MapPQError(err)
		}
		return nil
	})
}

// GetByID looks up a user by ID without tenant scoping. Callers are
// expected to have already authorized access to this user (either they are
// the user, or they hold a permission that grants cross-tenant lookup).
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		query := `
			SELECT id, email, password_hash, first_name, last_name, is_active,
			       created_at, updated_at, deleted_at, version
			FROM users
			WHERE id = $1 AND deleted_at IS NULL
		`
		return r.db.DB().GetContext(ctx, &user, query, id)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail looks up a user by email across all tenants. Used only during
// login resolution, before a tenant session has been established.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		query := `
			SELECT id, email, password_hash, first_name, last_name, is_active,
			       created_at, updated_at, deleted_at, version
			FROM users
			WHERE email = $1 AND deleted_at IS NULL
		`
		return r.db.DB().GetContext(ctx, &user, query, email)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates a user's profile fields, enforcing optimistic concurrency
// against user.Version.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		query := `
			UPDATE users
			SET email = $2, first_name = $3, last_name = $4, is_active = $5,
			    updated_at = NOW(), version = version + 1
			WHERE id = $1 AND version = $6 AND deleted_at IS NULL
		`
		result, err := r.db.DB().ExecContext(ctx, query, user.ID, user.Email, user.FirstName, user.LastName, user.IsActive, user.Version)
		if err != nil {
			return database.MapPQError(err)
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.VersionConflict()
		}
		user.Version++
		return nil
	})
}

// UpdatePassword updates a user's password hash. Not part of the
// optimistic-concurrency surface, since it never races with profile edits
// in practice (password changes are re-authenticated separately).
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
		_, err := r.db.DB().ExecContext(ctx, query, id, passwordHash)
		return err
	})
}

// SoftDelete marks a user deleted without removing the row.
func (r *UserRepository) SoftDelete(ctx context.Context, id string) error {
	return r.db.UnscopedTx(ctx, func(ctx context.Context) error {
		query := `UPDATE users SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
		result, err := r.db.DB().ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("user")
		}
		return nil
	})
}

// ListForTenant returns every user holding at least one role in the tenant
// found in ctx, scoped through the tenant session so row-level security
// applies to the underlying user_roles join.
func (r *UserRepository) ListForTenant(ctx context.Context, page, perPage int) ([]*domain.User, int64, error) {
	var total int64
	var users []*domain.User

	err := r.db.Query(ctx, func(ctx context.Context) error {
		countQuery := `
			SELECT COUNT(DISTINCT u.id)
			FROM users u
			JOIN user_roles ur ON ur.user_id = u.id
			WHERE u.deleted_at IS NULL
		`
		if err := r.db.DB().GetContext(ctx, &total, countQuery); err != nil {
			return err
		}

		offset := (page - 1) * perPage
		query := `
			SELECT DISTINCT u.id, u.email, u.first_name, u.last_name, u.is_active,
			       u.created_at, u.updated_at, u.deleted_at, u.version
			FROM users u
			JOIN user_roles ur ON ur.user_id = u.id
			WHERE u.deleted_at IS NULL
			ORDER BY u.created_at DESC
			LIMIT $1 OFFSET $2
		`
		rows, err := r.db.DB().QueryxContext(ctx, query, perPage, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u domain.User
			if err := rows.StructScan(&u); err != nil {
				return err
			}
			users = append(users, &u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
