package ports

import (
	"context"

	"github.com/streamgate/streamgate/core"
)

// UserDirectory resolves login credentials to accounts. User storage is an
// external collaborator; this is the only lookup the auth flow needs.
type UserDirectory interface {
	// FindByEmail returns the account for the email address, or
	// core.ErrInvalidCredentials if no such account exists.
	FindByEmail(ctx context.Context, email string) (core.User, error)
}
