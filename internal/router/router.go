// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/collab-notes/internal/handler"
	"github.com/iliyamo/collab-notes/internal/realtime"
)

// RegisterHealth registers routes that require no authentication beyond
// availability: the health check used by load balancers.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /v1/auth.
// Register, login and refresh are public (rate limited); the user list
// requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate echo.MiddlewareFunc, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh-token", a.RefreshToken)
	g.GET("/users", a.ListUsers, gate)
}

// RegisterNotes registers the note CRUD and share endpoints under /v1/notes.
// Every route runs through the auth gate.
func RegisterNotes(e *echo.Echo, n *handler.NoteHandler, gate echo.MiddlewareFunc) {
	g := e.Group("/v1/notes", gate)
	g.POST("", n.Create)
	g.GET("", n.List)
	g.PUT("/:id", n.Update)
	g.DELETE("/:id", n.Delete)
	g.POST("/:id/share", n.Share)
}

// RegisterRealtime mounts the websocket endpoint.  The channel is opened
// independently of the REST credential.
func RegisterRealtime(e *echo.Echo, ws *realtime.Handler) {
	e.GET("/ws", ws.HandleWS)
}
