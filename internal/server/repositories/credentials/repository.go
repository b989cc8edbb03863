// Package credentials provides the repository for credential records:
// identifier, password digest and the server-held opaque session token.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository is the persistence contract for credential rows. All mutations
// are scoped to a single row; there are no table-wide operations.
type Repository interface {
	// Create inserts a new credential and returns its generated id.
	// A uniqueness violation yields common.ErrorDuplicateIdentifier.
	Create(ctx context.Context, identifier string, passwordHash []byte) (int64, error)

	// FindByIdentifier returns the row for the given identifier, or
	// common.ErrorNotFound.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Credential, error)

	// FindByID returns the row for the given id, or common.ErrorNotFound.
	FindByID(ctx context.Context, id int64) (*models.Credential, error)

	// UpdateOpaque unconditionally replaces the stored opaque value.
	// A nil value clears it, revoking the session.
	UpdateOpaque(ctx context.Context, id int64, opaque *string) error

	// CompareAndSwapOpaque atomically replaces the stored opaque value
	// with next, but only if it currently equals expected. It reports
	// whether the swap happened. This single conditional write is what
	// keeps verify-and-rotate linearized per user under concurrent
	// replays of the same token.
	CompareAndSwapOpaque(ctx context.Context, id int64, expected, next string) (bool, error)
}
