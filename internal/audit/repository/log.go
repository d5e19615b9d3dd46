package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/schoolflow/schoolflow-backend/internal/audit/domain"
	"github.com/schoolflow/schoolflow-backend/pkg/database"
)

// LogRepository persists audit entries to the tenant-scoped audit_logs
// table. Every write goes through the facade's scoped Exec, so a log entry
// can only ever land under the tenant already active in ctx.
type LogRepository struct {
	db *database.Facade
}

// NewLogRepository creates a new audit log repository.
func NewLogRepository(db *database.Facade) *LogRepository {
	return &LogRepository{db: db}
}

// Create inserts an audit log entry. details is marshaled to JSON as-is;
// a nil map stores as an empty object.
func (r *LogRepository) Create(ctx context.Context, tenantID, actorID, actorName, action, resourceType, resourceID string, details map[string]interface{}, ipAddress string) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	id := uuid.New().String()
	return r.db.Exec(ctx, `
		INSERT INTO audit_logs (
			id, tenant_id, actor_id, actor_name, action, resource_type,
			resource_id, details, ip_address
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, tenantID, actorID, actorName, action, resourceType, resourceID, payload, ipAddress)
}

// ListForTenant returns the most recent audit entries for the tenant found
// in ctx, newest first.
func (r *LogRepository) ListForTenant(ctx context.Context, limit, offset int) ([]domain.Log, error) {
	var logs []domain.Log
	err := r.db.Select(ctx, &logs, `
		SELECT id, tenant_id, actor_id, actor_name, action, resource_type,
		       resource_id, target_user_id, target_user_name, details,
		       ip_address, user_agent, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}

// ListForResource returns every audit entry recorded against a specific
// resource, oldest first, within the tenant found in ctx.
func (r *LogRepository) ListForResource(ctx context.Context, resourceType, resourceID string) ([]domain.Log, error) {
	var logs []domain.Log
	err := r.db.Select(ctx, &logs, `
		SELECT id, tenant_id, actor_id, actor_name, action, resource_type,
		       resource_id, target_user_id, target_user_name, details,
		       ip_address, user_agent, created_at
		FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at ASC
	`, resourceType, resourceID)
	return logs, err
}
