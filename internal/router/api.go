package router

import (
	"github.com/labstack/echo/v4"

	"github.com/pharmintel/pharmintel/internal/handler"
	"github.com/pharmintel/pharmintel/internal/middleware"
)

// registerAPIRoutes registers the versioned business API.
//
// Read-only browse endpoints (drugs, trials, papers, digests) are public.
// Anything tied to a user or expensive to serve (watchlists, the agent
// query, CSV exports) requires authentication.
func registerAPIRoutes(r *echo.Echo, h *handler.Handlers, m *middleware.Middlewares) {
	api := r.Group("/api/v1")

	api.GET("/drugs", h.Drugs.List())
	api.GET("/drugs/:id", h.Drugs.Get())
	api.GET("/drugs/:id/trials", h.Drugs.ListTrials())
	api.GET("/drugs/:id/papers", h.Drugs.ListPapers())

	api.GET("/digests", h.Digests.List())
	api.GET("/digests/:id", h.Digests.Get())

	api.POST("/query", h.Query.Query(), m.Auth.RequireAuth, m.RateLimit.LimitQueries())

	watchlists := api.Group("/watchlists", m.Auth.RequireAuth)
	watchlists.POST("", h.Watchlist.Create())
	watchlists.GET("", h.Watchlist.List())
	watchlists.GET("/:id", h.Watchlist.Get())
	watchlists.DELETE("/:id", h.Watchlist.Delete())
	watchlists.POST("/:id/items", h.Watchlist.AddItem())
	watchlists.DELETE("/:id/items/:drug_id", h.Watchlist.RemoveItem())

	exports := api.Group("/exports", m.Auth.RequireAuth)
	exports.GET("/trials.csv", h.Exports.ExportTrials())
}
