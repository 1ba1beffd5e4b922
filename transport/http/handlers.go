package http

import (
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/streamgate/streamgate/cookie"
	"github.com/streamgate/streamgate/core"
	"github.com/streamgate/streamgate/service"
)

// Handlers provides the HTTP handlers for the gate.
type Handlers struct {
	auth   *service.AuthService
	stream *service.StreamService

	secureCookies bool
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, stream *service.StreamService, secureCookies bool) *Handlers {
	return &Handlers{auth: auth, stream: stream, secureCookies: secureCookies}
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TicketRequest optionally narrows the token lifetime.
type TicketRequest struct {
	TTLSeconds int `json:"ttl_seconds"`
}

// Login authenticates credentials and sets the session cookie.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortJSON(c, core.E(core.KindValidation, "email and password are required"))
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		abortJSON(c, err)
		return
	}

	h.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"success": true, "subject_id": sess.SubjectID, "expires_at": sess.ExpiresAt})
}

// Logout revokes the presented session and expires the cookie. Succeeds
// even without a valid session so stale clients can always clean up.
func (h *Handlers) Logout(c *gin.Context) {
	if sid, ok := cookie.ExtractValue(c.GetHeader("Cookie"), cookie.SessionCookieName); ok {
		if err := h.auth.Logout(c.Request.Context(), sid); err != nil && errors.Is(err, core.ErrStoreUnavailable) {
			abortJSON(c, err)
			return
		}
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LogoutAll revokes every session of the authenticated subject.
func (h *Handlers) LogoutAll(c *gin.Context) {
	d := DecisionFrom(c)
	count, err := h.auth.LogoutAll(c.Request.Context(), d.SubjectID)
	if err != nil {
		abortJSON(c, err)
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "revoked": count})
}

// Me echoes the authenticated principal.
func (h *Handlers) Me(c *gin.Context) {
	d := DecisionFrom(c)
	c.JSON(http.StatusOK, gin.H{"subject_id": d.SubjectID})
}

// Ticket issues a streaming token for one video, bound to the requesting
// client, and returns it embedded in the delivery URLs.
func (h *Handlers) Ticket(c *gin.Context) {
	var req TicketRequest
	// The body is optional; a bare POST takes the default TTL.
	_ = c.ShouldBindJSON(&req)

	d := DecisionFrom(c)
	ticket, err := h.stream.IssueTicket(
		c.Request.Context(),
		c.Param("id"),
		d.SubjectID,
		c.ClientIP(),
		c.GetHeader("User-Agent"),
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		abortJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Manifest returns the rewritten manifest with the caller's token embedded
// in every gated URI. A session principal arriving without a token is first
// play: a fresh token is minted for them, bound to the requesting client,
// so the playlist's segment and key URIs are fetchable. Token-bearing
// responses are never cacheable.
func (h *Handlers) Manifest(c *gin.Context) {
	token, presented := extractStreamToken(c)
	if !presented {
		if d := DecisionFrom(c); d.Allow && d.Claims == nil {
			ticket, err := h.stream.IssueTicket(
				c.Request.Context(),
				c.Param("id"),
				d.SubjectID,
				c.ClientIP(),
				c.GetHeader("User-Agent"),
				0,
			)
			if err != nil {
				abortPlain(c, err)
				return
			}
			token = ticket.Token
		}
	}

	body, format, err := h.stream.Manifest(c.Request.Context(), c.Param("id"), token)
	if err != nil {
		abortPlain(c, err)
		return
	}

	noStoreCORS(c)
	c.Data(http.StatusOK, format.ContentType(), body)
}

// Segment streams one media segment after token validation (the mediator
// already ran). Byte-range serving proper belongs to the storage
// collaborator; the gate only decides and relays.
func (h *Handlers) Segment(c *gin.Context) {
	rc, err := h.stream.Segment(c.Request.Context(), c.Param("id"), c.Param("file"))
	if err != nil {
		abortPlain(c, err)
		return
	}
	defer rc.Close()

	noStoreCORS(c)
	c.Header("Content-Type", segmentContentType(c.Param("file")))
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

// segmentContentType maps a segment file name to its media type.
func segmentContentType(name string) string {
	switch path.Ext(name) {
	case ".ts":
		return "video/mp2t"
	case ".mp4", ".m4s":
		return "video/mp4"
	case ".aac":
		return "audio/aac"
	}
	return "application/octet-stream"
}

// Key releases clearkey material. The route's token-only mediator has
// independently re-validated the token before this runs; the manifest only
// ever carried the pointer here, never the key.
func (h *Handlers) Key(c *gin.Context) {
	key, err := h.stream.Key(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortPlain(c, err)
		return
	}

	noStoreCORS(c)
	c.JSON(http.StatusOK, key)
}

func (h *Handlers) setSessionCookie(c *gin.Context, sess core.Session) {
	c.Writer.Header().Add("Set-Cookie", cookie.Build(cookie.SessionCookieName, sess.ID, cookie.Options{
		MaxAge: int(time.Until(sess.ExpiresAt).Seconds()),
		Secure: h.secureCookies,
	}))
}

func (h *Handlers) clearSessionCookie(c *gin.Context) {
	c.Writer.Header().Add("Set-Cookie", cookie.BuildExpired(cookie.SessionCookieName, cookie.Options{
		Secure: h.secureCookies,
	}))
}
