// Package auditlog provides the repository for the auth incident log.
// Writes are best-effort: a failed audit insert must never fail the request
// that triggered it.
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository is the persistence contract for audit entries.
type Repository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
}
