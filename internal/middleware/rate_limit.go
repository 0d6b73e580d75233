package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/pharmintel/pharmintel/internal/errs"
	"github.com/pharmintel/pharmintel/internal/server"
)

// queryRate throttles the agent query route per client IP. The
// orchestrator fans out to several repository reads per query, so it gets
// a tighter budget than the plain browse routes.
const (
	queryRate  rate.Limit = 5
	queryBurst            = 10
)

// RateLimitMiddleware throttles expensive routes and records limit hits
// as New Relic custom events.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// LimitQueries returns an in-memory, per-IP limiter for the query route.
func (r *RateLimitMiddleware) LimitQueries() echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:  queryRate,
			Burst: queryBurst,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			return errs.NewTooManyRequestsError("Too many requests")
		},
	})
}

// RecordRateLimitHit emits a RateLimitHit custom event when New Relic is
// configured.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	if r.server.LoggerService != nil && r.server.LoggerService.GetApplication() != nil {
		r.server.LoggerService.GetApplication().RecordCustomEvent("RateLimitHit", map[string]interface{}{
			"endpoint": endpoint,
		})
	}
}
