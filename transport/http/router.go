package http

import (
	"github.com/gin-gonic/gin"

	"github.com/streamgate/streamgate/service"
)

// SetupRouter sets up the Gin router. Endpoint classes map to mediator
// policies: /api is session-only, segment and key delivery are token-only,
// and manifests accept either credential.
func SetupRouter(auth *service.AuthService, stream *service.StreamService, secureCookies bool) *gin.Engine {
	router := gin.Default()

	handlers := NewHandlers(auth, stream, secureCookies)

	// Auth routes
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/logout", handlers.Logout)
		authGroup.POST("/logout-all", RequireSession(auth), handlers.LogoutAll)
	}

	// Protected API routes (session-only)
	api := router.Group("/api")
	api.Use(RequireSession(auth))
	{
		api.GET("/me", handlers.Me)
		api.POST("/videos/:id/ticket", handlers.Ticket)
	}

	// Media delivery routes
	media := router.Group("/stream/:id")
	{
		media.GET("/manifest.m3u8", RequireSessionOrToken(auth, stream), handlers.Manifest)
		media.GET("/manifest.mpd", RequireSessionOrToken(auth, stream), handlers.Manifest)
		media.GET("/segment/:file", RequireToken(stream), handlers.Segment)
		media.GET("/key", RequireToken(stream), handlers.Key)
	}

	return router
}
