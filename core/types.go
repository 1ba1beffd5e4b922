package core

import "time"

// Session represents an authenticated browser principal. Sessions are
// immutable once created; renewal always means issuing a new session.
type Session struct {
	ID        string    // opaque random identifier, 256 bits of entropy
	SubjectID string    // owning principal
	UserAgent string    // optional anomaly signal
	IPAddress string    // optional anomaly signal
	CreatedAt time.Time // when the session was created
	ExpiresAt time.Time // absolute expiry; strictly after CreatedAt
}

// Expired reports whether the session is no longer valid at the given time.
// The boundary itself counts as expired.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// StreamClaims is the claim set carried by a streaming token. A token is
// scoped to exactly one video and must never authorize any other resource.
type StreamClaims struct {
	VideoID   string    // the one resource this token authorizes
	SubjectID string    // principal the token was issued to
	ClientIP  string    // optional binding signal
	UserAgent string    // optional binding signal (stored as a digest on the wire)
	IssuedAt  time.Time // when the token was minted
	ExpiresAt time.Time // short expiry, minutes not hours
}

// User is an account known to the user directory. The directory itself is
// an external collaborator; only what login needs is modeled here.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
}

// RewriteContext carries everything a single manifest rewrite needs. It is
// constructed per call and never persisted.
type RewriteContext struct {
	VideoID         string
	Token           string // empty means rewrite paths without a token parameter
	BaseSegmentPath string // gated segment endpoint prefix
	BaseKeyPath     string // gated key-delivery endpoint prefix
}

// ManifestFormat identifies how a stored manifest must be rewritten.
type ManifestFormat string

const (
	FormatHLS  ManifestFormat = "hls"
	FormatDASH ManifestFormat = "dash"
)

// ContentType returns the response Content-Type for the format.
func (f ManifestFormat) ContentType() string {
	if f == FormatDASH {
		return "application/dash+xml"
	}
	return "application/vnd.apple.mpegurl"
}

// ManifestSource is a stored manifest as the catalog hands it out, before
// any rewriting.
type ManifestSource struct {
	Format ManifestFormat
	Body   []byte
}

// Ticket is the result of a successful token-issuance request. The token is
// embedded in both URLs so a player needs no further credential negotiation.
type Ticket struct {
	Token          string `json:"token"`
	ManifestURL    string `json:"manifest_url"`
	KeyDeliveryURL string `json:"key_delivery_url"`
}
