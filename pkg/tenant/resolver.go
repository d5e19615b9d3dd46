package tenant

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ImpersonateHeader lets an authenticated platform owner act within a
// specific tenant without that tenant being present in their access token.
const ImpersonateHeader = "X-Impersonate-Tenant"

// TenantHeader carries an explicit tenant selection when the caller's
// access token does not already pin one (e.g. a platform-owner session, or
// a user who belongs to more than one tenant).
const TenantHeader = "X-Tenant-Id"

// Lookup resolves a tenant slug (typically parsed off a request's
// subdomain) to a tenant ID. Implemented by the school/tenant repository;
// kept as an interface here so the resolver has no repository dependency.
type Lookup interface {
	TenantIDForSlug(ctx context.Context, slug string) (tenantID string, active bool, err error)
}

// slugCacheEntry caches a single slug->id lookup for a short window, since
// subdomain resolution runs on every request that doesn't carry an
// explicit tenant claim or header.
type slugCacheEntry struct {
	tenantID  string
	active    bool
	expiresAt time.Time
}

// Resolver implements the tenant resolution order: access-token tenant ID,
// then the X-Tenant-Id header, then the request's subdomain slug. A
// platform owner may additionally impersonate a tenant via
// X-Impersonate-Tenant regardless of which (if any) tenant their own token
// carries.
type Resolver struct {
	lookup Lookup
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]slugCacheEntry
}

// NewResolver creates a Resolver backed by the given slug lookup, caching
// slug resolutions for ttl (defaulting to 30s when ttl <= 0).
func NewResolver(lookup Lookup, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Resolver{
		lookup: lookup,
		ttl:    ttl,
		cache:  make(map[string]slugCacheEntry),
	}
}

// TokenTenant describes the tenant claim (if any) carried by the caller's
// validated access token.
type TokenTenant struct {
	TenantID        string
	IsPlatformOwner bool
}

// Resolved is the outcome of running the resolution chain: the tenant ID to
// scope the request to, whether it is active, and the source the ID came
// from (for logging/debugging).
type Resolved struct {
	TenantID string
	Active   bool
	Source   string // "token", "header", "subdomain", "impersonation", "none"
}

// Resolve runs the token -> header -> subdomain precedence chain for a
// single HTTP request.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request, token TokenTenant) (Resolved, error) {
	// Direct tenant-ID paths (token/header/impersonation) are marked active
	// here; the authz pipeline's tenant-resolution step (resolveTenant)
	// fetches the full tenant row afterwards and rejects an inactive tenant
	// there.
	if token.IsPlatformOwner {
		if impersonate := req.Header.Get(ImpersonateHeader); impersonate != "" {
			return Resolved{TenantID: impersonate, Active: true, Source: "impersonation"}, nil
		}
	}

	if token.TenantID != "" {
		return Resolved{TenantID: token.TenantID, Active: true, Source: "token"}, nil
	}

	if headerID := req.Header.Get(TenantHeader); headerID != "" {
		return Resolved{TenantID: headerID, Active: true, Source: "header"}, nil
	}

	if slug := subdomainSlug(req.Host); slug != "" {
		tenantID, active, ok := r.lookupSlug(ctx, slug)
		if !ok {
			return Resolved{Source: "none"}, nil
		}
		return Resolved{TenantID: tenantID, Active: active, Source: "subdomain"}, nil
	}

	return Resolved{Source: "none"}, nil
}

func (r *Resolver) lookupSlug(ctx context.Context, slug string) (tenantID string, active bool, ok bool) {
	r.mu.Lock()
	if e, found := r.cache[slug]; found && time.Now().Before(e.expiresAt) {
		r.mu.Unlock()
		return e.tenantID, e.active, true
	}
	r.mu.Unlock()

	id, active, err := r.lookup.TenantIDForSlug(ctx, slug)
	if err != nil || id == "" {
		return "", false, false
	}

	r.mu.Lock()
	r.cache[slug] = slugCacheEntry{tenantID: id, active: active, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()

	return id, active, true
}

// subdomainSlug extracts the leftmost label of a request Host as a tenant
// slug candidate. Returns "" for bare domains, IP literals, and the
// conventional "www"/"api" labels that never name a tenant.
func subdomainSlug(host string) string {
	host = strings.ToLower(host)
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	parts := strings.Split(host, ".")
	if len(parts) < 3 {
		return ""
	}

	label := parts[0]
	switch label {
	case "www", "api", "app", "localhost":
		return ""
	}
	return label
}
