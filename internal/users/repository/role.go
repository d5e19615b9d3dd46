package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/schoolflow/schoolflow-backend/internal/users/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
)

// RoleRepository handles role grants and the flat permission strings each
// role carries. Unlike the teacher's single JSONB permissions column per
// role, grants are normalized into two tables so that the authz pipeline's
// TTL cache can load roles and permissions as independent, separately
// invalidated sets.
type RoleRepository struct {
	db *database.Facade
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *database.Facade) *RoleRepository {
	return &RoleRepository{db: db}
}

// RolesForUser returns the role names a user holds within the tenant found
// in ctx.
func (r *RoleRepository) RolesForUser(ctx context.Context, userID string) ([]string, error) {
	var roles []string
	err := r.db.Select(ctx, &roles, `
		SELECT role_name FROM user_roles WHERE user_id = $1
	`, userID)
	return roles, err
}

// PermissionsForRoles returns the de-duplicated union of permissions
// granted to the given role names within the tenant found in ctx.
func (r *RoleRepository) PermissionsForRoles(ctx context.Context, roleNames []string) ([]string, error) {
	if len(roleNames) == 0 {
		return nil, nil
	}

	var perms []string
	err := r.db.Select(ctx, &perms, `
		SELECT DISTINCT permission FROM role_permissions WHERE role_name = ANY($1)
	`, roleNames)
	return perms, err
}

// AssignRole grants userID the named role in the tenant found in ctx.
func (r *RoleRepository) AssignRole(ctx context.Context, userID, roleName string) error {
	return r.db.Exec(ctx, `
		INSERT INTO user_roles (id, user_id, tenant_id, role_name)
		VALUES ($1, $2, current_setting('app.current_tenant')::uuid, $3)
		ON CONFLICT (user_id, tenant_id, role_name) DO NOTHING
	`, uuid.New().String(), userID, roleName)
}

// RevokeRole removes a role grant from a user within the tenant found in
// ctx.
func (r *RoleRepository) RevokeRole(ctx context.Context, userID, roleName string) error {
	return r.db.Exec(ctx, `
		DELETE FROM user_roles WHERE user_id = $1 AND role_name = $2
	`, userID, roleName)
}

// GrantPermission adds a permission to a role within the tenant found in
// ctx.
func (r *RoleRepository) GrantPermission(ctx context.Context, roleName, permission string) error {
	return r.db.Exec(ctx, `
		INSERT INTO role_permissions (id, tenant_id, role_name, permission)
		VALUES ($1, current_setting('app.current_tenant')::uuid, $2, $3)
		ON CONFLICT (tenant_id, role_name, permission) DO NOTHING
	`, uuid.New().String(), roleName, permission)
}

// RevokePermission removes a permission from a role within the tenant found
// in ctx.
func (r *RoleRepository) RevokePermission(ctx context.Context, roleName, permission string) error {
	return r.db.Exec(ctx, `
		DELETE FROM role_permissions WHERE role_name = $1 AND permission = $2
	`, roleName, permission)
}

// IsPlatformOwner reports whether userID holds the platform-owner escape
// hatch. This table lives outside tenant scoping, so the lookup is
// unscoped.
func (r *RoleRepository) IsPlatformOwner(ctx context.Context, userID string) (bool, error) {
	var count int
	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		return r.db.DB().GetContext(ctx, &count, `
			SELECT COUNT(*) FROM platform_owners WHERE user_id = $1
		`, userID)
	})
	return count > 0, err
}

// RolesAcrossTenants returns every (tenant_id, role_name) pair granted to
// userID, used to populate a login token when the user belongs to exactly
// one tenant or to present a tenant picker when they belong to several.
func (r *RoleRepository) RolesAcrossTenants(ctx context.Context, userID string) ([]domain.UserRole, error) {
	var roles []domain.UserRole
	err := r.db.UnscopedQuery(ctx, func(ctx context.Context) error {
		return r.db.DB().SelectContext(ctx, &roles, `
			SELECT id, user_id, tenant_id, role_name, created_at
			FROM user_roles
			WHERE user_id = $1
		`, userID)
	})
	return roles, err
}
