package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/handler"
)

// registerSystemRoutes registers endpoints that are not part of the
// business API: health, docs, and the static assets backing the docs UI.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	// Health status endpoint (used by Kubernetes/monitors).
	r.GET("/status", h.Health.CheckHealth)

	// Serve all files from ./static at /static/*.
	// Used for openapi.json and openapi.html (and any future docs assets).
	r.Static("/static", "static")

	// Docs UI endpoint (serves openapi.html).
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
