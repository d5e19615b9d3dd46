package service

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/internal/platform/domain"
	"github.com/schoolflow/schoolflow-backend/internal/platform/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/errors"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/permissions"
)

// AuditRecorder records platform-level audit events (tenant onboarded,
// suspended, impersonated). Satisfied by internal/audit's publisher.
type AuditRecorder interface {
	PublishAction(ctx context.Context, action, targetType, targetID string, details map[string]interface{}) error
}

// TenantService implements platform-owner tenant administration: the
// onboarding, suspension, and deletion of a school. There is no
// tenant-scoped counterpart to these operations — every method here is
// reached only through internal/authz.Pipeline.RequirePlatformOwner.
type TenantService struct {
	tenants *repository.TenantRepository
	audit   AuditRecorder
	logger  *logger.Logger
}

// NewTenantService creates a TenantService.
func NewTenantService(tenants *repository.TenantRepository, audit AuditRecorder, log *logger.Logger) *TenantService {
	return &TenantService{tenants: tenants, audit: audit, logger: log}
}

// Onboard provisions a new tenant.
func (s *TenantService) Onboard(ctx context.Context, slug, name string) (*domain.Tenant, error) {
	t := &domain.Tenant{Slug: slug, Name: name, Status: domain.TenantStatusActive}
	if err := s.tenants.Create(ctx, t); err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "TENANT_ONBOARDED", "tenant", t.ID, map[string]interface{}{
			"slug": t.Slug,
			"name": t.Name,
		})
	}

	s.logger.Info().Str("tenant_id", t.ID).Str("slug", t.Slug).Msg("tenant onboarded")
	return t, nil
}

// Get fetches a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.tenants.GetByID(ctx, id)
}

// List returns every tenant, paginated.
func (s *TenantService) List(ctx context.Context, page, perPage int) ([]*domain.Tenant, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return s.tenants.List(ctx, page, perPage)
}

// Suspend flips a tenant to suspended, cutting off every caller scoped to
// it on their next authz pass regardless of a still-valid access token.
func (s *TenantService) Suspend(ctx context.Context, id string) error {
	if err := s.tenants.UpdateStatus(ctx, id, domain.TenantStatusSuspended); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "TENANT_SUSPENDED", "tenant", id, nil)
	}
	return nil
}

// Reactivate flips a suspended tenant back to active.
func (s *TenantService) Reactivate(ctx context.Context, id string) error {
	if err := s.tenants.UpdateStatus(ctx, id, domain.TenantStatusActive); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "TENANT_REACTIVATED", "tenant", id, nil)
	}
	return nil
}

// Offboard soft-deletes a tenant. This is destructive to the tenant's
// access, not to its rows — retention and purge are out of scope here.
func (s *TenantService) Offboard(ctx context.Context, id string) error {
	if err := s.tenants.SoftDelete(ctx, id); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.PublishAction(ctx, "TENANT_OFFBOARDED", "tenant", id, nil)
	}
	return nil
}

// ValidateImpersonationTarget checks that a platform owner may impersonate
// the given tenant: it must exist and be active. A suspended or
// soft-deleted tenant rejects impersonation with the same TenantInactive
// error a regular caller would see.
func (s *TenantService) ValidateImpersonationTarget(ctx context.Context, tenantID string) error {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if !t.IsActive() {
		return errors.TenantInactive()
	}
	return nil
}

// BootstrapPrincipal is a convenience used by tenant onboarding flows: it
// names the role a newly onboarded tenant's first user should hold.
func BootstrapPrincipal() string {
	return permissions.RolePrincipal
}
