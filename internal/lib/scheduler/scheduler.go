// Package scheduler triggers the periodic background work. It wraps a
// cron runner that enqueues asynq tasks on the specs from config; the
// actual work happens in the job workers, so a slow sync never blocks the
// cron loop.
package scheduler

import (
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/pharmintel/pharmintel/internal/config"
	"github.com/pharmintel/pharmintel/internal/lib/job"
)

// Scheduler owns the cron runner and the asynq client used to enqueue.
type Scheduler struct {
	cron   *cron.Cron
	client *asynq.Client
	logger *zerolog.Logger
	cfg    *config.SchedulerConfig
}

// New builds the Scheduler and registers the configured schedules. An
// empty spec disables that schedule; a malformed one is logged and
// skipped so a bad env value cannot take the whole scheduler down.
func New(logger *zerolog.Logger, cfg *config.Config, client *asynq.Client) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		client: client,
		logger: logger,
		cfg:    cfg.Scheduler,
	}

	s.register(cfg.Scheduler.TrialsSpec, job.TaskSyncTrials, job.NewSyncTask(job.TaskSyncTrials))
	s.register(cfg.Scheduler.TargetsSpec, job.TaskSyncTargets, job.NewSyncTask(job.TaskSyncTargets))
	s.register(cfg.Scheduler.LiteratureSpec, job.TaskSyncLiterature, job.NewSyncTask(job.TaskSyncLiterature))
	s.register(cfg.Scheduler.SafetySpec, job.TaskSyncSafety, job.NewSyncTask(job.TaskSyncSafety))
	s.register(cfg.Scheduler.QuotesSpec, job.TaskSyncQuotes, job.NewQuotesTask())
	s.register(cfg.Scheduler.DigestSpec, job.TaskDigestBuild, job.NewDigestBuildTask())

	return s
}

func (s *Scheduler) register(spec, taskType string, task *asynq.Task) {
	if spec == "" {
		return
	}

	_, err := s.cron.AddFunc(spec, func() {
		info, err := s.client.Enqueue(task)
		if err != nil {
			s.logger.Error().Err(err).Str("task", taskType).Msg("scheduled enqueue failed")
			return
		}
		s.logger.Info().Str("task", taskType).Str("task_id", info.ID).Msg("scheduled task enqueued")
	})
	if err != nil {
		s.logger.Error().Err(err).Str("task", taskType).Str("spec", spec).Msg("invalid cron spec, schedule skipped")
	}
}

// Start begins the cron loop. No-op when schedules are disabled.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("Scheduler disabled")
		return
	}
	s.logger.Info().Int("schedules", len(s.cron.Entries())).Msg("Starting scheduler")
	s.cron.Start()
}

// Stop halts the cron loop, waiting for any in-flight enqueue to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
