package handler

import (
	"github.com/pharmintel/pharmintel/internal/server"
	"github.com/pharmintel/pharmintel/internal/service"
)

// Handlers groups all HTTP handlers so router setup passes one object
// around.
type Handlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	Drugs     *DrugsHandler
	Watchlist *WatchlistHandler
	Digests   *DigestsHandler
	Exports   *ExportsHandler
	Query     *QueryHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		Drugs:     NewDrugsHandler(s, services.Intel),
		Watchlist: NewWatchlistHandler(s, services.Watchlist),
		Digests:   NewDigestsHandler(s, services.Digest),
		Exports:   NewExportsHandler(s, services.Intel),
		Query:     NewQueryHandler(s, services.Agent),
	}
}
