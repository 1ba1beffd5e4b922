package ports

import "github.com/streamgate/streamgate/core"

// Tokenizer converts between streaming-token claims and their compact,
// URL-safe wire form. Implementations are pure functions of a server-held
// secret plus the claims; no shared mutable state.
type Tokenizer interface {
	// ClaimsToToken signs the claims and returns the wire form.
	ClaimsToToken(claims *core.StreamClaims) (string, error)

	// TokenToClaims verifies the signature, then the expiry, and returns the
	// embedded claims. Failures are reported as core.ErrBadSignature,
	// core.ErrTokenExpired or core.ErrInvalidToken.
	TokenToClaims(token string) (*core.StreamClaims, error)

	// BindingDigest reduces a binding signal (user agent) to the short
	// digest form carried on the wire.
	BindingDigest(value string) string
}
