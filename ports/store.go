package ports

import (
	"context"

	"github.com/streamgate/streamgate/core"
)

// SessionStore persists session records keyed by opaque session id.
// Implementations must distinguish "no such session" (core.ErrSessionInvalid)
// from "cannot check" (core.ErrStoreUnavailable).
type SessionStore interface {
	// Create persists a new session record.
	Create(ctx context.Context, s core.Session) error

	// Get returns the session iff it exists and has not expired. Expired
	// records found on lookup are purged.
	Get(ctx context.Context, id string) (core.Session, error)

	// Revoke deletes a session. Revoking an absent or already-expired
	// session is not an error.
	Revoke(ctx context.Context, id string) error

	// RevokeAllForSubject deletes every live session owned by the subject
	// and returns how many were revoked.
	RevokeAllForSubject(ctx context.Context, subjectID string) (int, error)
}
