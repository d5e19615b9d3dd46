package domain

import "time"

// Tenant statuses. Suspended and deleted tenants fail the authz pipeline's
// tenant-resolution step even when a caller presents a valid token for them.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusDeleted   = "deleted"
)

// Tenant is an isolated customer dataset (a school). It is the one entity
// in the system that is never itself tenant-scoped: every other row in the
// database carries a tenantId that must resolve to one of these.
type Tenant struct {
	ID        string     `db:"id" json:"id"`
	Slug      string     `db:"slug" json:"slug"`
	Name      string     `db:"name" json:"name"`
	Status    string     `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// IsActive reports whether the tenant may be resolved and authorized
// against. Suspended or soft-deleted tenants are not.
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive && t.DeletedAt == nil
}

// PlatformOwner is a global administrator not bound to any tenant, stored
// outside the per-tenant user table and never carrying a UserRole grant.
type PlatformOwner struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
