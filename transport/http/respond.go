package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/streamgate/streamgate/core"
)

// errorBody is the uniform JSON error envelope.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// clientMessage returns the taxonomy's message for an error, falling back
// to a generic one so internal detail never leaks.
func clientMessage(err error) string {
	var e *core.Error
	if errors.As(err, &e) && e.Kind != core.KindInternal {
		return e.Message
	}
	return "internal error"
}

// abortJSON ends the request with the taxonomy status and JSON envelope.
func abortJSON(c *gin.Context, err error) {
	c.AbortWithStatusJSON(core.KindOf(err).HTTPStatus(), errorBody{
		Success: false,
		Error:   clientMessage(err),
	})
}

// abortPlain ends the request with status only, for manifest and segment
// endpoints that signal failure via HTTP status alone.
func abortPlain(c *gin.Context, err error) {
	c.AbortWithStatus(core.KindOf(err).HTTPStatus())
}

// noStoreCORS sets the response headers shared by all token-bearing media
// responses: never cached, playable cross-origin.
func noStoreCORS(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Header("Access-Control-Allow-Origin", "*")
}
