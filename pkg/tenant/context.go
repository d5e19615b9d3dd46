package tenant

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const (
	tenantIDKey         contextKey = "tenant_id"
	tenantSlugKey        contextKey = "tenant_slug"
	platformOwnerKey     contextKey = "platform_owner"
)

var (
	// ErrNoTenantInContext is returned when tenant context is missing
	ErrNoTenantInContext = errors.New("no tenant in context")
)

// WithTenantContext adds tenant identity to the context. This should be
// called by middleware after the resolver has picked a tenant for the
// request (from the access token, the X-Tenant-Id header, or the
// subdomain).
func WithTenantContext(ctx context.Context, id, slug string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, id)
	ctx = context.WithValue(ctx, tenantSlugKey, slug)
	return ctx
}

// WithTenantID adds only tenant ID to context
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithTenantSlug adds only tenant slug to context
func WithTenantSlug(ctx context.Context, tenantSlug string) context.Context {
	return context.WithValue(ctx, tenantSlugKey, tenantSlug)
}

// WithPlatformOwner marks the context as belonging to an authenticated
// platform owner, who may use the unscoped query path regardless of which
// tenant (if any) is also attached to the context via impersonation.
func WithPlatformOwner(ctx context.Context, isPlatformOwner bool) context.Context {
	return context.WithValue(ctx, platformOwnerKey, isPlatformOwner)
}

// TenantID extracts tenant ID from context
// Returns ErrNoTenantInContext if tenant ID is not found
func TenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(tenantIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoTenantInContext
	}
	return id, nil
}

// TenantSlug extracts tenant slug from context
// Returns ErrNoTenantInContext if tenant slug is not found
func TenantSlug(ctx context.Context) (string, error) {
	slug, ok := ctx.Value(tenantSlugKey).(string)
	if !ok || slug == "" {
		return "", ErrNoTenantInContext
	}
	return slug, nil
}

// IsPlatformOwner reports whether the context's actor holds the platform
// owner escape hatch.
func IsPlatformOwner(ctx context.Context) bool {
	isOwner, _ := ctx.Value(platformOwnerKey).(bool)
	return isOwner
}

// MustTenantID extracts tenant ID from context and panics if not found
// Use only in cases where missing tenant is a programming error
func MustTenantID(ctx context.Context) string {
	id, err := TenantID(ctx)
	if err != nil {
		panic("tenant ID not found in context")
	}
	return id
}
