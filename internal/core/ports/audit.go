package ports

import "github.com/storefront/sessions-api/internal/core/domain"

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}
