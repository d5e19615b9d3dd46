// Package permissions provides utilities for checking permission code sets
// against a required permission, with support for a domain-level wildcard.
//
// Permission Format:
//   - "*" - full access (all permissions, in every domain)
//   - "domain:*" - all actions within a domain (e.g., "timetable:*")
//   - "domain:action" - a specific action (e.g., "grade:finalize")
package permissions

import (
	"strings"
)

// HasPermission checks if the user's permissions include the required
// permission. Supports wildcard matching:
//   - "*" matches everything
//   - "timetable:*" matches "timetable:read", "timetable:generate", etc.
//   - exact match for specific codes
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true // No permission required
	}

	for _, p := range userPerms {
		if p == "*" {
			return true // Full admin access
		}
		if p == required {
			return true // Exact match
		}
		// Check wildcard patterns like "timetable:*"
		if strings.HasSuffix(p, ":*") {
			prefix := strings.TrimSuffix(p, ":*")
			if strings.HasPrefix(required, prefix+":") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the user has all of the required permissions.
func HasAllPermissions(userPerms []string, required []string) bool {
	for _, req := range required {
		if !HasPermission(userPerms, req) {
			return false
		}
	}
	return true
}

// ExpandWildcard expands a wildcard permission pattern to check if it covers
// a set of specific permissions. Returns the list of permissions that would
// be covered.
func ExpandWildcard(pattern string, allKnownPerms []string) []string {
	if pattern == "*" {
		return allKnownPerms
	}

	if !strings.HasSuffix(pattern, ":*") {
		// Not a wildcard, return as-is if it exists
		for _, p := range allKnownPerms {
			if p == pattern {
				return []string{pattern}
			}
		}
		return nil
	}

	prefix := strings.TrimSuffix(pattern, ":*")
	var matches []string
	for _, p := range allKnownPerms {
		if strings.HasPrefix(p, prefix+":") {
			matches = append(matches, p)
		}
	}
	return matches
}

// FilterByPrefix returns all permissions that match a given domain prefix.
// Useful for listing every permission in a category (e.g., "timetable").
func FilterByPrefix(perms []string, prefix string) []string {
	var matches []string
	for _, p := range perms {
		if strings.HasPrefix(p, prefix+":") || p == prefix {
			matches = append(matches, p)
		}
	}
	return matches
}

// MergePermissions merges multiple permission sets, removing duplicates.
// Useful for combining role permissions from several held roles.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	var result []string

	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}

// RemovePermissions removes specific permissions from a set.
// Useful for applying permission revocations.
func RemovePermissions(perms []string, toRemove []string) []string {
	removeSet := make(map[string]bool)
	for _, p := range toRemove {
		removeSet[p] = true
	}

	var result []string
	for _, p := range perms {
		if !removeSet[p] {
			result = append(result, p)
		}
	}

	return result
}

// CommonPermissions is the list of standard permission codes recognized
// across schoolflow. Used by IsValidPermission's known-code lookup;
// role_permissions is not seeded from it.
var CommonPermissions = []string{
	// School data (classes, subjects, rooms, teachers, requirements)
	"school:read",
	"school:write",
	"school:delete",
	"school:*",

	// Timetable generator
	"timetable:generate",
	"timetable:read",
	"timetable:move",
	"timetable:lock",
	"timetable:finalize",
	"timetable:*",

	// Staff
	"staff:read",
	"staff:write",
	"staff:delete",
	"staff:*",

	// Users and role grants
	"users:read",
	"users:write",
	"users:delete",
	"users:roles:assign",
	"users:*",

	// Reports and document generation
	"documents:read",
	"documents:generate",
	"documents:export",
	"documents:*",

	// Profile self-management
	"profile:read",
	"profile:update",
	"profile:password:change",
	"profile:*",

	// Admin / platform
	"admin:settings",
	"admin:audit:read",
	"admin:tenant:manage",
	"admin:*",

	// Grades and attendance (teacher/registrar domain)
	"grade:create",
	"grade:finalize",
	"attendance:create",
	"attendance:read",

	// Payments (accountant domain)
	"payment:create",
	"payment:read",

	// Full access
	"*",
}

// IsValidPermission checks if a permission string is in the known list.
// Allows wildcards and custom codes that follow the domain:action shape.
func IsValidPermission(perm string) bool {
	if perm == "*" {
		return true
	}

	for _, p := range CommonPermissions {
		if p == perm {
			return true
		}
	}

	// Allow any permission that follows domain:action
	parts := strings.Split(perm, ":")
	return len(parts) >= 2
}
