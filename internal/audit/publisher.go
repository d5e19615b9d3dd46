// Package audit records who did what to which resource, both durably (a
// tenant-scoped row in audit_logs) and as a fire-and-forget event for any
// downstream consumer that wants its own copy.
package audit

import (
	"context"

	"github.com/schoolflow/schoolflow-backend/internal/audit/repository"
	"github.com/schoolflow/schoolflow-backend/pkg/actor"
	"github.com/schoolflow/schoolflow-backend/pkg/logger"
	"github.com/schoolflow/schoolflow-backend/pkg/messaging"
	"github.com/schoolflow/schoolflow-backend/pkg/tenant"
)

// Publisher satisfies every PublishAction-shaped AuditRecorder interface in
// this module (internal/users/service and, by the same contract, the auth
// and timetable services). It always writes the durable row first; the
// message bus publish is best-effort and never fails the call.
type Publisher struct {
	repo   *repository.LogRepository
	bus    *messaging.Publisher
	logger *logger.Logger
}

// NewPublisher creates a Publisher. bus may be nil, in which case entries
// are recorded durably but never fanned out over the message bus — useful
// for tests and for deployments that haven't wired RabbitMQ.
func NewPublisher(repo *repository.LogRepository, bus *messaging.Publisher, log *logger.Logger) *Publisher {
	return &Publisher{repo: repo, bus: bus, logger: log}
}

// PublishAction records action against a resource on behalf of the actor
// and tenant found in ctx. A missing tenant is tolerated (e.g. a failed
// login before any tenant was resolved) by writing under the empty tenant;
// callers that already know their tenant should prefer WithTenant.
func (p *Publisher) PublishAction(ctx context.Context, action, targetType, targetID string, details map[string]interface{}) error {
	tenantID, _ := tenant.TenantID(ctx)
	return p.record(ctx, tenantID, action, targetType, targetID, details)
}

// WithTenant records action under an explicit tenant, bypassing ctx
// resolution entirely. Used by flows (login failure, registration) that
// know the tenant they're acting on before any tenant context has been
// attached.
func (p *Publisher) WithTenant(ctx context.Context, tenantID, action, targetType, targetID string, details map[string]interface{}) error {
	return p.record(ctx, tenantID, action, targetType, targetID, details)
}

func (p *Publisher) record(ctx context.Context, tenantID, action, targetType, targetID string, details map[string]interface{}) error {
	a := actor.FromContext(ctx)
	actorID, actorName := "", ""
	if a != nil {
		actorID, actorName = a.ID, a.FullName()
	}

	scopedCtx := tenant.WithTenantID(ctx, tenantID)
	if err := p.repo.Create(scopedCtx, tenantID, actorID, actorName, action, targetType, targetID, details, ""); err != nil {
		return err
	}

	if p.bus == nil {
		return nil
	}

	event := messaging.AuditLogCreatedEvent{
		TenantID:   tenantID,
		UserID:     actorID,
		Action:     action,
		Resource:   targetType,
		ResourceID: targetID,
		Changes:    details,
	}
	if err := p.bus.Publish(ctx, messaging.EventAuditLogCreated, event); err != nil {
		p.logger.Warn().Err(err).Str("action", action).Msg("audit event publish failed, durable record still written")
	}
	return nil
}
