package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/streamgate/streamgate/cookie"
	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/service"
)

// Decision is the single normalized outcome the mediator produces for every
// protected route. Handlers read it from the context and never shape deny
// responses themselves.
type Decision struct {
	Allow     bool
	SubjectID string
	Claims    *core.StreamClaims // set when a streaming token authorized the request
	Reason    error              // set when Allow is false
}

const decisionKey = "streamgate.decision"

// DecisionFrom reads the mediator's decision for the current request.
func DecisionFrom(c *gin.Context) Decision {
	if v, ok := c.Get(decisionKey); ok {
		if d, ok := v.(Decision); ok {
			return d
		}
	}
	return Decision{Reason: core.ErrSessionInvalid}
}

// respondMode controls how a denial is written: JSON envelope for API
// routes, bare status for media routes.
type respondMode int

const (
	respondJSON respondMode = iota
	respondStatus
)

func deny(c *gin.Context, mode respondMode, err error) {
	c.Set(decisionKey, Decision{Allow: false, Reason: err})
	if mode == respondStatus {
		abortPlain(c, err)
		return
	}
	abortJSON(c, err)
}

func allow(c *gin.Context, d Decision) {
	d.Allow = true
	c.Set(decisionKey, d)
	c.Next()
}

// sessionDecision resolves the request's cookie against the session store.
// Store unavailability is surfaced as such, never as unauthenticated.
func sessionDecision(c *gin.Context, auth *service.AuthService) (Decision, error) {
	sid, ok := cookie.ExtractValue(c.GetHeader("Cookie"), cookie.SessionCookieName)
	if !ok {
		return Decision{}, core.ErrSessionInvalid
	}
	sess, err := auth.Validate(c.Request.Context(), sid)
	if err != nil {
		return Decision{}, err
	}
	return Decision{SubjectID: sess.SubjectID}, nil
}

// extractStreamToken reads the streaming token from the query parameter
// and, failing that, from a bearer header. Query presence matters because
// players cannot set headers on manifest-derived sub-requests.
func extractStreamToken(c *gin.Context) (string, bool) {
	if t := c.Query("token"); t != "" {
		return t, true
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if t := strings.TrimSpace(auth[7:]); t != "" {
			return t, true
		}
	}
	return "", false
}

// errTokenAbsent distinguishes "no token presented" from "token judged and
// rejected"; only the former may fall through to the session check.
var errTokenAbsent = core.E(core.KindUnauthenticated, "streaming token required")

// tokenDecision resolves a streaming token against the video id in the
// route path and the request's binding signals.
func tokenDecision(c *gin.Context, stream *service.StreamService) (Decision, error) {
	token, ok := extractStreamToken(c)
	if !ok {
		return Decision{}, errTokenAbsent
	}
	claims, err := stream.ValidateToken(
		c.Request.Context(),
		token,
		c.Param("id"),
		c.ClientIP(),
		c.GetHeader("User-Agent"),
	)
	if err != nil {
		return Decision{}, err
	}
	return Decision{SubjectID: claims.SubjectID, Claims: claims}, nil
}

// RequireSession enforces the session-only policy.
func RequireSession(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := sessionDecision(c, auth)
		if err != nil {
			deny(c, respondJSON, err)
			return
		}
		allow(c, d)
	}
}

// RequireToken enforces the token-only policy on media routes.
func RequireToken(stream *service.StreamService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := tokenDecision(c, stream)
		if err != nil {
			deny(c, respondStatus, err)
			return
		}
		allow(c, d)
	}
}

// RequireSessionOrToken enforces the either-or policy used by manifest
// endpoints: reachable with a valid session on first play or with an
// already-issued token on subsequent fetches. A store outage still denies
// as unavailable rather than unauthenticated when no token can decide.
func RequireSessionOrToken(auth *service.AuthService, stream *service.StreamService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d, err := tokenDecision(c, stream); err == nil {
			allow(c, d)
			return
		} else if !errors.Is(err, errTokenAbsent) {
			// A token was presented and judged; its verdict stands.
			deny(c, respondStatus, err)
			return
		}

		d, err := sessionDecision(c, auth)
		if err != nil {
			deny(c, respondStatus, err)
			return
		}
		allow(c, d)
	}
}
