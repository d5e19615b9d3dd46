package authz

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirePermission_Wildcard(t *testing.T) {
	info := Info{Permissions: []string{"*"}}
	assert.True(t, requirePermission(info, MatchAny, "payment:create"))
	assert.True(t, requirePermission(info, MatchAll, "payment:create", "grade:finalize"))
}

func TestRequirePermission_Any(t *testing.T) {
	info := Info{Permissions: []string{"attendance:create", "grade:create"}}

	assert.True(t, requirePermission(info, MatchAny, "payment:create", "grade:create"))
	assert.False(t, requirePermission(info, MatchAny, "payment:create"))
}

func TestRequirePermission_All(t *testing.T) {
	info := Info{Permissions: []string{"attendance:create", "grade:create"}}

	assert.True(t, requirePermission(info, MatchAll, "attendance:create", "grade:create"))
	assert.False(t, requirePermission(info, MatchAll, "attendance:create", "payment:create"))
}

func TestRequirePermission_NoCodesAlwaysPasses(t *testing.T) {
	assert.True(t, requirePermission(Info{}, MatchAny))
}

func TestRequireRole_PlatformOwnerAlwaysPasses(t *testing.T) {
	info := Info{IsPlatformOwner: true}
	assert.True(t, requireRole(info, "accountant"))
}

func TestRequireRole_PrincipalAlwaysPasses(t *testing.T) {
	info := Info{Roles: []string{"principal"}}
	assert.True(t, requireRole(info, "accountant"))
}

func TestRequireRole_Membership(t *testing.T) {
	info := Info{Roles: []string{"teacher"}}
	assert.True(t, requireRole(info, "teacher", "registrar"))
	assert.False(t, requireRole(info, "accountant"))
}

func TestRequireOwnership_ElevatedRoleBypassesIdentityCheck(t *testing.T) {
	info := Info{UserID: "user-1", Roles: []string{"teacher"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	owns, err := requireOwnership(info, req, func(*http.Request) (string, error) {
		return "someone-else", nil
	})
	require.NoError(t, err)
	assert.True(t, owns)
}

func TestRequireOwnership_StudentMustOwnTheResource(t *testing.T) {
	info := Info{UserID: "user-1", Roles: []string{"student"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	owns, err := requireOwnership(info, req, func(*http.Request) (string, error) {
		return "user-1", nil
	})
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = requireOwnership(info, req, func(*http.Request) (string, error) {
		return "someone-else", nil
	})
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestRequireOwnership_PropagatesOwnerLookupError(t *testing.T) {
	info := Info{UserID: "user-1", Roles: []string{"student"}}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	boom := errors.New("record not found")

	_, err := requireOwnership(info, req, func(*http.Request) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRequirePermissionMiddleware_DeniesWithoutInfo(t *testing.T) {
	handlerCalled := false
	mw := RequirePermission(MatchAny, "grade:finalize")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/grades/finalize", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermissionMiddleware_AllowsMatchingPermission(t *testing.T) {
	handlerCalled := false
	mw := RequirePermission(MatchAny, "grade:finalize")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/grades/finalize", nil)
	req = req.WithContext(WithInfo(req.Context(), Info{Permissions: []string{"grade:finalize"}}))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionMiddleware_DeniesMissingPermission(t *testing.T) {
	handlerCalled := false
	mw := RequirePermission(MatchAny, "grade:finalize")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/grades/finalize", nil)
	req = req.WithContext(WithInfo(req.Context(), Info{Permissions: []string{"attendance:create"}}))
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
