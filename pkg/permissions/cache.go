package permissions

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL is the default lifetime of a cached roles/permissions entry.
const DefaultTTL = 5 * time.Minute

// entry holds a cached value alongside its expiry time.
type entry struct {
	values    []string
	expiresAt time.Time
}

// Cache is a process-local, best-effort TTL cache of a user's roles and
// permissions within a tenant, keyed separately as roles:userId:tenantId
// and perms:userId:tenantId. It is deliberately not a source of truth: a
// stale hit is an acceptable outcome for the window of the TTL, and
// concurrent misses for the same key are allowed to both hit the database
// rather than being deduplicated, trading a little redundant work for a
// cache that needs no request coalescing.
type Cache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]entry
}

// NewCache creates a permission cache with the given TTL. A zero ttl uses
// DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl: ttl,
		m:   make(map[string]entry),
	}
}

func rolesKey(userID, tenantID string) string {
	return fmt.Sprintf("roles:%s:%s", userID, tenantID)
}

func permsKey(userID, tenantID string) string {
	return fmt.Sprintf("perms:%s:%s", userID, tenantID)
}

func (c *Cache) get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.m[key]
	if !found || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.values, true
}

func (c *Cache) set(key string, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = entry{values: values, expiresAt: time.Now().Add(c.ttl)}
}

// GetRoles returns the cached role names for a user in a tenant.
func (c *Cache) GetRoles(userID, tenantID string) ([]string, bool) {
	return c.get(rolesKey(userID, tenantID))
}

// SetRoles caches role names for a user in a tenant, resetting the TTL.
func (c *Cache) SetRoles(userID, tenantID string, roles []string) {
	c.set(rolesKey(userID, tenantID), roles)
}

// GetPermissions returns the cached permission strings for a user in a tenant.
func (c *Cache) GetPermissions(userID, tenantID string) ([]string, bool) {
	return c.get(permsKey(userID, tenantID))
}

// SetPermissions caches permission strings for a user in a tenant, resetting
// the TTL.
func (c *Cache) SetPermissions(userID, tenantID string, perms []string) {
	c.set(permsKey(userID, tenantID), perms)
}

// Invalidate drops both cached entries for a user in a tenant. Call this
// after a role/permission mutation so the next request reloads from the
// database instead of serving a stale grant window.
func (c *Cache) Invalidate(userID, tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, rolesKey(userID, tenantID))
	delete(c.m, permsKey(userID, tenantID))
}

// InvalidateTenant drops every cached entry belonging to a tenant. Use this
// after a tenant-wide role/permission-map change.
func (c *Cache) InvalidateTenant(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	suffix := ":" + tenantID
	for k := range c.m {
		if len(k) > len(suffix) && k[len(k)-len(suffix):] == suffix {
			delete(c.m, k)
		}
	}
}

// IsPrincipal reports whether a role set carries the wildcard "principal"
// role, which grants every permission within the current tenant.
func IsPrincipal(roles []string) bool {
	for _, r := range roles {
		if r == "*" || r == RolePrincipal {
			return true
		}
	}
	return false
}
