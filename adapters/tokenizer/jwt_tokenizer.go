package tokenizer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/ports"
)

// AudienceStream marks streaming tokens; they live in a separate trust
// boundary from session cookies and must never be accepted elsewhere.
const AudienceStream = "stream:media"

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs. The
// signature is an HMAC-SHA256 over the canonical header.payload string with
// a server-held secret, so validation needs no store round-trip.
type JWTTokenizer struct {
	secret []byte
}

// NewJWTTokenizer creates a new JWT tokenizer.
func NewJWTTokenizer(secret []byte) ports.Tokenizer {
	return &JWTTokenizer{secret: secret}
}

// ClaimsToToken converts stream claims to a signed, URL-safe token string.
func (j *JWTTokenizer) ClaimsToToken(c *core.StreamClaims) (string, error) {
	claims := StreamTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.SubjectID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			Audience:  jwt.ClaimStrings{AudienceStream},
		},
		VideoID:  c.VideoID,
		ClientIP: c.ClientIP,
		AgentSum: c.UserAgent,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign stream token: %w", err)
	}

	return signedToken, nil
}

// TokenToClaims verifies a token string and returns the embedded claims.
// Signature integrity is checked before anything else; the expiry check
// follows, so a tampered token always reads as bad-signature.
func (j *JWTTokenizer) TokenToClaims(tokenStr string) (*core.StreamClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &StreamTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, core.Wrap(core.ErrBadSignature, err)
		}
		return nil, core.Wrap(core.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, core.ErrBadSignature
	}

	claims, ok := token.Claims.(*StreamTokenClaims)
	if !ok {
		return nil, core.ErrInvalidToken
	}

	// Audience gate: cookies and stream tokens never cross over.
	if len(claims.Audience) == 0 || claims.Audience[0] != AudienceStream {
		return nil, core.ErrInvalidToken
	}

	// Expiry is strictly required, and the boundary itself is invalid.
	if claims.ExpiresAt == nil {
		return nil, core.ErrInvalidToken
	}
	if !time.Now().Before(claims.ExpiresAt.Time) {
		return nil, core.ErrTokenExpired
	}

	out := &core.StreamClaims{
		VideoID:   claims.VideoID,
		SubjectID: claims.Subject,
		ClientIP:  claims.ClientIP,
		UserAgent: claims.AgentSum,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// BindingDigest reduces a user-agent string to the 8-byte digest carried in
// the token. Empty input stays empty so the binding remains optional.
func (j *JWTTokenizer) BindingDigest(value string) string {
	if value == "" {
		return ""
	}
	sum := hmac.New(sha256.New, j.secret)
	sum.Write([]byte(value))
	return hex.EncodeToString(sum.Sum(nil)[:8])
}
