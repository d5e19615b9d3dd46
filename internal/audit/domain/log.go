// Package domain holds the audit trail's row shape.
package domain

import (
	"encoding/json"
	"time"
)

// Log is one audit trail entry, written synchronously to the audit_logs table
// and fanned out asynchronously over the message bus for any downstream
// consumer (reporting, SIEM export) that wants its own copy.
type Log struct {
	ID             string          `db:"id"`
	TenantID       string          `db:"tenant_id"`
	ActorID        string          `db:"actor_id"`
	ActorName      string          `db:"actor_name"`
	Action         string          `db:"action"`
	ResourceType   string          `db:"resource_type"`
	ResourceID     string          `db:"resource_id"`
	TargetUserID   string          `db:"target_user_id"`
	TargetUserName string          `db:"target_user_name"`
	Details        json.RawMessage `db:"details"`
	IPAddress      string          `db:"ip_address"`
	UserAgent      string          `db:"user_agent"`
	CreatedAt      time.Time       `db:"created_at"`
}
