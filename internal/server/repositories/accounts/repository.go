package accounts

import (
	"context"

	"github.com/dbelyaev/gatekeeper/internal/server/models"
)

// Repository is the credential store. Implementations must enforce username
// and email uniqueness atomically on Create: the insert itself is the
// authority, not any earlier existence check, since two concurrent signups
// can race past the lookups.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)

	// MarkEmailVerified flips email_verified and replaces the pending code
	// with models.OtpConsumedSentinel in a single atomic write, so no reader
	// can observe a verified account with a live code.
	MarkEmailVerified(ctx context.Context, email string) error

	Delete(ctx context.Context, id string) error
}
