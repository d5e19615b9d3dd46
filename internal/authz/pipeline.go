package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/schoolflow/schoolflow-backend/internal/auth/jwt"
	"github.com/schoolflow/schoolflow-backend/pkg/actor"
	pkgerrors "github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
)

// TenantRecord is the subset of tenant state the pipeline needs to enforce
// spec §4.4's "resolved tenant must exist, not be soft-deleted, and have
// status = active" rule.
type TenantRecord struct {
	ID     string
	Slug   string
	Active bool
}

// TenantStore loads a tenant's current status. Satisfied by
// internal/platform's tenant repository.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (TenantRecord, error)
}

// RoleStore loads a user's role grants and the permissions those roles
// carry, both scoped to the tenant found in ctx. Satisfied by
// internal/users/repository.RoleRepository.
type RoleStore interface {
	RolesForUser(ctx context.Context, userID string) ([]string, error)
	PermissionsForRoles(ctx context.Context, roleNames []string) ([]string, error)
}

// Pipeline wires token verification, tenant resolution, and role/permission
// loading into a single chi-compatible middleware, per spec §4.5-§4.7.
type Pipeline struct {
	jwt      *jwt.Manager
	resolver *tenant.Resolver
	cache    *permissions.Cache
	tenants  TenantStore
	roles    RoleStore
	logger   *logger.Logger
}

// NewPipeline creates an authz Pipeline.
func NewPipeline(jwtManager *jwt.Manager, resolver *tenant.Resolver, cache *permissions.Cache, tenants TenantStore, roles RoleStore, log *logger.Logger) *Pipeline {
	return &Pipeline{jwt: jwtManager, resolver: resolver, cache: cache, tenants: tenants, roles: roles, logger: log}
}

// Require runs the full chain (authenticate → resolve tenant → load
// roles/permissions) and rejects the request on any failure. Use this for
// every tenant-scoped protected endpoint.
func (p *Pipeline) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := p.authenticate(r)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		ctx, err := p.resolveTenant(r.Context(), r, claims)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		ctx, info, err := p.loadRoles(ctx, claims)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}

		ctx = WithInfo(ctx, info)
		ctx = actor.WithActor(ctx, &actor.Actor{
			ID:              info.UserID,
			Email:           info.Email,
			TenantID:        info.TenantID,
			IsPlatformOwner: info.IsPlatformOwner,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePlatformOwner runs authentication only and rejects any caller
// whose token does not carry the platform-owner flag. Used for bootstrap
// and cross-tenant administration endpoints that have no tenant to
// resolve.
func (p *Pipeline) RequirePlatformOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := p.authenticate(r)
		if err != nil {
			httputil.ErrorLocalized(w, r, err)
			return
		}
		if !claims.IsPlatformOwner {
			httputil.ErrorLocalized(w, r, pkgerrors.Forbidden("platform owner required"))
			return
		}

		info := Info{
			UserID:          claims.UserID,
			Email:           claims.Email,
			Name:            claims.Name,
			Roles:           []string{permissions.RolePlatformOwner},
			Permissions:     []string{"*"},
			IsPlatformOwner: true,
		}

		ctx := WithInfo(r.Context(), info)
		ctx = actor.WithActor(ctx, &actor.Actor{ID: info.UserID, Email: info.Email, IsPlatformOwner: true})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authenticate implements spec §4.5: extract Authorization: Bearer <token>,
// verify signature and expiry.
func (p *Pipeline) authenticate(r *http.Request) (*jwt.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, pkgerrors.AuthMissing()
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, pkgerrors.AuthMissing()
	}

	claims, err := p.jwt.ValidateAccessToken(parts[1])
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Optional runs authenticate but never rejects the request: on any failure
// the request proceeds with no Info attached, per spec §4.5's "optional
// variant silently omits the attachment on any failure".
func (p *Pipeline) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := p.authenticate(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, err := p.resolveTenant(r.Context(), r, claims)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx, info, err := p.loadRoles(ctx, claims)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx = WithInfo(ctx, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveTenant implements spec §4.4: derive the tenant from token, header,
// or subdomain, then validate it exists and is active.
func (p *Pipeline) resolveTenant(ctx context.Context, r *http.Request, claims *jwt.Claims) (context.Context, error) {
	resolved, err := p.resolver.Resolve(ctx, r, tenant.TokenTenant{
		TenantID:        claims.TenantID,
		IsPlatformOwner: claims.IsPlatformOwner,
	})
	if err != nil {
		return ctx, err
	}

	if resolved.TenantID == "" {
		if claims.IsPlatformOwner {
			// A platform owner with no tenant pinned operates unscoped;
			// role loading below short-circuits to the platform_owner set.
			return tenant.WithPlatformOwner(ctx, true), nil
		}
		return ctx, pkgerrors.TenantRequired()
	}

	record, err := p.tenants.GetTenant(ctx, resolved.TenantID)
	if err != nil {
		return ctx, err
	}
	if !record.Active {
		return ctx, pkgerrors.TenantInactive()
	}

	ctx = tenant.WithTenantContext(ctx, record.ID, record.Slug)
	ctx = tenant.WithPlatformOwner(ctx, claims.IsPlatformOwner)
	return ctx, nil
}

// loadRoles implements spec §4.6.
func (p *Pipeline) loadRoles(ctx context.Context, claims *jwt.Claims) (context.Context, Info, error) {
	info := Info{
		UserID:          claims.UserID,
		Email:           claims.Email,
		Name:            claims.Name,
		IsPlatformOwner: claims.IsPlatformOwner,
	}

	if claims.IsPlatformOwner {
		info.Roles = []string{permissions.RolePlatformOwner}
		info.Permissions = []string{"*"}
		if tenantID, err := tenant.TenantID(ctx); err == nil {
			info.TenantID = tenantID
		}
		return ctx, info, nil
	}

	tenantID, err := tenant.TenantID(ctx)
	if err != nil {
		return ctx, info, pkgerrors.TenantRequired()
	}
	info.TenantID = tenantID
	if slug, err := tenant.TenantSlug(ctx); err == nil {
		info.TenantSlug = slug
	}

	roles, hit := p.cache.GetRoles(claims.UserID, tenantID)
	if !hit {
		roles, err = p.roles.RolesForUser(ctx, claims.UserID)
		if err != nil {
			return ctx, info, err
		}
		p.cache.SetRoles(claims.UserID, tenantID, roles)
	}
	if len(roles) == 0 {
		return ctx, info, pkgerrors.NoTenantAccess()
	}
	info.Roles = roles

	if permissions.IsPrincipal(roles) {
		info.Permissions = []string{"*"}
		p.cache.SetPermissions(claims.UserID, tenantID, info.Permissions)
		return ctx, info, nil
	}

	perms, hit := p.cache.GetPermissions(claims.UserID, tenantID)
	if !hit {
		perms, err = p.roles.PermissionsForRoles(ctx, roles)
		if err != nil {
			return ctx, info, err
		}
		p.cache.SetPermissions(claims.UserID, tenantID, perms)
	}
	info.Permissions = perms

	return ctx, info, nil
}
