// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Repositories return raw driver errors (annotated with a "table:<name>"
// hint on no-rows misses); translation into HTTP errors happens once, in
// the sqlerr package, called from the global error handler.
package repository

import (
	"strings"

	"github.com/pharmintel/pharmintel/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Drugs         *DrugsRepository
	Trials        *TrialsRepository
	Targets       *TargetsRepository
	Papers        *PapersRepository
	AdverseEvents *AdverseEventsRepository
	Quotes        *QuotesRepository
	Watchlists    *WatchlistsRepository
	Digests       *DigestsRepository
}

// prefixColumns qualifies a comma-separated column list with a table
// alias, for queries that join another table.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// NewRepositories constructs the repository container on top of the shared
// Postgres pool held by the application container.
func NewRepositories(s *server.Server) *Repositories {
	pool := s.DB.Pool
	return &Repositories{
		Drugs:         &DrugsRepository{pool: pool},
		Trials:        &TrialsRepository{pool: pool},
		Targets:       &TargetsRepository{pool: pool},
		Papers:        &PapersRepository{pool: pool},
		AdverseEvents: &AdverseEventsRepository{pool: pool},
		Quotes:        &QuotesRepository{pool: pool},
		Watchlists:    &WatchlistsRepository{pool: pool},
		Digests:       &DigestsRepository{pool: pool},
	}
}
