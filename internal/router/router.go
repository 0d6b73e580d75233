// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups, mapping
// specific paths to their corresponding handlers.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/handler"
	"github.com/pharmintel/pharmintel/internal/middleware"
)

// New builds the Echo instance with the full middleware chain and all
// routes registered. The returned router is ready to hand to the HTTP
// server.
func New(h *handler.Handlers, m *middleware.Middlewares) *echo.Echo {
	r := echo.New()

	r.HideBanner = true
	r.HidePort = true

	r.HTTPErrorHandler = m.Global.GlobalErrorHandler

	// Request ID first so every later middleware and log line carries it.
	// The New Relic transaction must exist before EnhanceTracing and
	// EnhanceContext read it.
	r.Use(middleware.RequestID())
	r.Use(m.Tracing.NewRelicMiddleware())
	r.Use(m.Tracing.EnhanceTracing())
	r.Use(m.ContextEnhancer.EnhanceContext())
	r.Use(m.Global.CORS())
	r.Use(m.Global.Secure())
	r.Use(m.Global.Recover())
	r.Use(m.Global.RequestLogger())

	registerSystemRoutes(r, h)
	registerAPIRoutes(r, h, m)

	return r
}
