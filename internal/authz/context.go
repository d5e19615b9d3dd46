// Package authz implements the composable authorization pipeline: token
// verification, tenant resolution, role/permission loading, and the
// permission/role/ownership predicates every protected endpoint is guarded
// by.
package authz

import "context"

// Info is the fully-resolved identity of the caller for the duration of one
// request: who they are, which tenant they are scoped to, and the role and
// permission sets that loaded for that (user, tenant) pair. It is a value
// copy attached to the request context — never a pointer into a shared
// cache entry, so a handler can't accidentally mutate cached state.
type Info struct {
	UserID          string
	Email           string
	Name            string
	TenantID        string
	TenantSlug      string
	Roles           []string
	Permissions     []string
	IsPlatformOwner bool
}

// HasPermission reports whether this identity's permission set satisfies
// the required code, honoring the "*" wildcard.
func (i Info) HasPermission(code string) bool {
	for _, p := range i.Permissions {
		if p == "*" || p == code {
			return true
		}
	}
	return false
}

type contextKey string

const infoKey contextKey = "authz_info"

// WithInfo attaches a resolved Info to ctx.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext retrieves the resolved Info from ctx. ok is false if the
// authz pipeline has not run (or the caller is a background job context).
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey).(Info)
	return info, ok
}
