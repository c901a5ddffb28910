package ports

import (
	"context"

	"github.com/99minutos/identity-service/internal/core/domain"
)

// AuditPublisher hands audit events off for asynchronous persistence.
// Publish must not block the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}

// AuditRepository persists the security audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}
