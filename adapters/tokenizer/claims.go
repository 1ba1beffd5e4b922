package tokenizer

import "github.com/golang-jwt/jwt/v5"

// StreamTokenClaims combines standard claims with the stream scope and
// client-binding signals. The user agent travels as a short digest; raw
// agent strings are long and the token rides in URLs.
type StreamTokenClaims struct {
	jwt.RegisteredClaims
	VideoID  string `json:"vid"`
	ClientIP string `json:"ip,omitempty"`
	AgentSum string `json:"uas,omitempty"` // digest of the user agent
}
