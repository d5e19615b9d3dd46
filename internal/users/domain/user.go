// Package domain holds the identity data model: users, their per-tenant
// role assignments, and the flat permission strings each role carries.
package domain

import "time"

// User is a platform account. A single User row may hold roles in more
// than one tenant; the row itself carries no tenant_id.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
	Version      int        `db:"version" json:"version"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserRole is a single (user, tenant, role) grant. A user may hold several
// roles within the same tenant, and different role sets in different
// tenants.
type UserRole struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	RoleName  string    `db:"role_name" json:"role_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RolePermission is a single (tenant, role, permission) grant. The wildcard
// permission "*" grants every action; a tenant's "principal" role is
// conventionally seeded with "*".
type RolePermission struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	RoleName   string    `db:"role_name" json:"role_name"`
	Permission string    `db:"permission" json:"permission"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PlatformOwner marks a user ID as holding the platform-owner escape hatch,
// independent of any tenant role assignment.
type PlatformOwner struct {
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
