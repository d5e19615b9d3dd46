// Package service exposes read access to the audit trail recorded by
// internal/audit.Publisher.
package service

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/internal/audit/domain"
	"github.com/schoolflow/schoolflow-backend/internal/audit/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
)

// AuditService serves the queryable side of the audit trail.
type AuditService struct {
	logs   *repository.LogRepository
	logger *logger.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(logs *repository.LogRepository, log *logger.Logger) *AuditService {
	return &AuditService{logs: logs, logger: log}
}

// List returns the tenant's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, page, perPage int) ([]domain.Log, error) {
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * perPage
	return s.logs.ListForTenant(ctx, perPage, offset)
}

// ForResource returns the audit trail recorded against a single resource,
// oldest first — used to reconstruct a record's history.
func (s *AuditService) ForResource(ctx context.Context, resourceType, resourceID string) ([]domain.Log, error) {
	return s.logs.ListForResource(ctx, resourceType, resourceID)
}
