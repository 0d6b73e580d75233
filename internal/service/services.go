// Package service contains the business logic.
//
// It sits between the handler and repository layers: handlers pass in
// validated input, services perform the domain operations and call
// repositories for persistence.
package service

import (
	"github.com/pharmintel/pharmintel/internal/agent"
	"github.com/pharmintel/pharmintel/internal/etl"
	"github.com/pharmintel/pharmintel/internal/lib/email"
	"github.com/pharmintel/pharmintel/internal/lib/job"
	"github.com/pharmintel/pharmintel/internal/repository"
	"github.com/pharmintel/pharmintel/internal/server"
)

type Services struct {
	Auth      *AuthService
	Intel     *IntelService
	Watchlist *WatchlistService
	Digest    *DigestService
	Agent     *agent.Orchestrator
	Syncer    *etl.Syncer
	Job       *job.JobService
}

// NewServices constructs the service container and finishes the job
// wiring: the digest and sync services built here are handed to the job
// handlers, which could not exist before the repositories did.
func NewServices(s *server.Server, repos *repository.Repositories) *Services {
	mailer := email.NewClient(s.Config, s.Logger)
	syncer := etl.NewSyncer(s.Logger, s.Config, repos)
	digestService := NewDigestService(s, repos, mailer)

	s.Job.InitHandlers(syncer, digestService, mailer)

	return &Services{
		Auth:      NewAuthService(s),
		Intel:     NewIntelService(s, repos),
		Watchlist: NewWatchlistService(s, repos),
		Digest:    digestService,
		Agent:     agent.NewOrchestrator(s.Logger, repos, s.Redis),
		Syncer:    syncer,
		Job:       s.Job,
	}
}
