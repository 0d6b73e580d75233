// Package job provides background job processing using asynq.
//
// asynq is a Redis-backed job queue: tasks are enqueued through
// asynq.Client and a worker server pulls them from Redis and runs the
// registered handlers. All ETL syncs and the digest flow run here.
package job

import (
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
)

// Queue names, by worker share. Out of the 10 worker slots roughly six
// serve critical tasks, three default, one low.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// JobService holds the asynq client (enqueue) and server (worker
// execution), plus the handler dependencies wired in by InitHandlers.
type JobService struct {
	// Client is used to enqueue tasks into Redis.
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// Handler dependencies. Nil until InitHandlers runs; Start refuses to
	// run the workers before then.
	syncer  Syncer
	digests DigestRecorder
	mailer  DigestMailer
}

// NewJobService creates a JobService against the Redis instance from cfg.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
	})

	return &JobService{
		Client: asynq.NewClient(redisOpt),
		server: server,
		logger: logger,
	}
}

// InitHandlers wires the dependencies the task handlers need. It must run
// before Start; the handlers are built on the repositories and services,
// which in turn are built on the server container that owns this
// JobService, so the wiring happens late.
func (j *JobService) InitHandlers(syncer Syncer, digests DigestRecorder, mailer DigestMailer) {
	j.syncer = syncer
	j.digests = digests
	j.mailer = mailer
}

// Start registers the task handlers and starts the worker server. It does
// not block; asynq runs its workers on background goroutines.
func (j *JobService) Start() error {
	if j.syncer == nil || j.digests == nil || j.mailer == nil {
		return ErrHandlersNotInitialized
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSyncTrials, j.handleSyncTrials)
	mux.HandleFunc(TaskSyncTargets, j.handleSyncTargets)
	mux.HandleFunc(TaskSyncLiterature, j.handleSyncLiterature)
	mux.HandleFunc(TaskSyncProteins, j.handleSyncProteins)
	mux.HandleFunc(TaskSyncStructures, j.handleSyncStructures)
	mux.HandleFunc(TaskSyncSafety, j.handleSyncSafety)
	mux.HandleFunc(TaskSyncQuotes, j.handleSyncQuotes)
	mux.HandleFunc(TaskDigestBuild, j.handleDigestBuild)
	mux.HandleFunc(TaskDigestEmail, j.handleDigestEmail)

	j.logger.Info().Msg("Starting background job server")

	return j.server.Start(mux)
}

// Stop gracefully stops the job server and closes client resources.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
