package authz

import (
	"net/http"

	pkgerrors "github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/httputil"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
)

// MatchMode selects how a permission set satisfies a list of required
// codes: any one of them, or all of them.
type MatchMode int

const (
	// MatchAny passes when at least one required code is held. Default.
	MatchAny MatchMode = iota
	// MatchAll passes only when every required code is held.
	MatchAll
)

// requirePermission implements spec §4.7: a wildcard permission ("*")
// always passes; otherwise tests membership of codes against info's
// permission set under mode.
func requirePermission(info Info, mode MatchMode, codes ...string) bool {
	if len(codes) == 0 {
		return true
	}
	if mode == MatchAll {
		return permissions.HasAllPermissions(info.Permissions, codes)
	}
	return permissions.HasAnyPermission(info.Permissions, codes)
}

// requireRole passes if info holds any of the named roles; platform owner
// and principal always pass regardless of the named set.
func requireRole(info Info, roles ...string) bool {
	if info.IsPlatformOwner || permissions.IsPrincipal(info.Roles) {
		return true
	}
	return permissions.HasRole(info.Roles, roles...)
}

// OwnerIDFunc extracts the resource owner's user ID from a request, e.g. a
// path parameter or a loaded record's author field.
type OwnerIDFunc func(r *http.Request) (string, error)

// requireOwnership passes unconditionally for elevated roles (principal,
// registrar, accountant, teacher); otherwise it requires the caller to be
// the resource owner.
func requireOwnership(info Info, r *http.Request, ownerID OwnerIDFunc) (bool, error) {
	if info.IsPlatformOwner || permissions.IsElevated(info.Roles) {
		return true, nil
	}
	owner, err := ownerID(r)
	if err != nil {
		return false, err
	}
	return owner == info.UserID, nil
}

// RequirePermission is HTTP middleware enforcing requirePermission(codes,
// mode) against the request's resolved Info. Mount it after Pipeline.Require.
func RequirePermission(mode MatchMode, codes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := FromContext(r.Context())
			if !ok {
				httputil.ErrorLocalized(w, r, pkgerrors.AuthMissing())
				return
			}
			if !requirePermission(info, mode, codes...) {
				httputil.ErrorLocalized(w, r, pkgerrors.PermissionDenied())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole is HTTP middleware enforcing requireRole(roles) against the
// request's resolved Info.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := FromContext(r.Context())
			if !ok {
				httputil.ErrorLocalized(w, r, pkgerrors.AuthMissing())
				return
			}
			if !requireRole(info, roles...) {
				httputil.ErrorLocalized(w, r, pkgerrors.PermissionDenied())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnership is HTTP middleware enforcing requireOwnership(ownerIDFn)
// against the request's resolved Info.
func RequireOwnership(ownerID OwnerIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			info, ok := FromContext(r.Context())
			if !ok {
				httputil.ErrorLocalized(w, r, pkgerrors.AuthMissing())
				return
			}
			owns, err := requireOwnership(info, r, ownerID)
			if err != nil {
				httputil.ErrorLocalized(w, r, err)
				return
			}
			if !owns {
				httputil.ErrorLocalized(w, r, pkgerrors.PermissionDenied())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
