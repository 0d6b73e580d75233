package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/pkg/errors"

	"github.com/pharmintel/pharmintel/internal/digest"
	"github.com/pharmintel/pharmintel/internal/model"
)

// ErrHandlersNotInitialized is returned by Start when InitHandlers was not
// called first.
var ErrHandlersNotInitialized = errors.New("job handlers not initialized")

// Syncer is the slice of the ETL layer the job handlers drive.
type Syncer interface {
	SyncTrials(ctx context.Context) ([]digest.Change, map[int64]string, error)
	SyncTargets(ctx context.Context) error
	SyncPapers(ctx context.Context) error
	SyncProteins(ctx context.Context) error
	SyncStructures(ctx context.Context) error
	SyncSafety(ctx context.Context) error
	SyncQuotes(ctx context.Context) error
}

// DigestRecorder persists digest runs and resolves who should hear about
// them.
type DigestRecorder interface {
	Record(ctx context.Context, changes []digest.Change, drugNames map[int64]string) (*model.Digest, bool, error)
	Get(ctx context.Context, id int64) (*model.Digest, error)
	Recipients(ctx context.Context, d *model.Digest) ([]string, error)
}

// DigestMailer sends a rendered digest email.
type DigestMailer interface {
	SendDigestEmail(to []string, d *model.Digest) error
}

func (j *JobService) handleSyncTrials(ctx context.Context, _ *asynq.Task) error {
	// The standalone trial sync discards changes; the digest:build task is
	// the path that turns them into digests.
	_, _, err := j.syncer.SyncTrials(ctx)
	return err
}

// handleSyncTargets runs the full target enrichment chain. Protein and
// structure lookups only cover rows the earlier steps produced, so they
// run in sequence here rather than on their own schedules.
func (j *JobService) handleSyncTargets(ctx context.Context, _ *asynq.Task) error {
	if err := j.syncer.SyncTargets(ctx); err != nil {
		return err
	}
	if err := j.syncer.SyncProteins(ctx); err != nil {
		return err
	}
	return j.syncer.SyncStructures(ctx)
}

func (j *JobService) handleSyncLiterature(ctx context.Context, _ *asynq.Task) error {
	return j.syncer.SyncPapers(ctx)
}

func (j *JobService) handleSyncProteins(ctx context.Context, _ *asynq.Task) error {
	return j.syncer.SyncProteins(ctx)
}

func (j *JobService) handleSyncStructures(ctx context.Context, _ *asynq.Task) error {
	return j.syncer.SyncStructures(ctx)
}

func (j *JobService) handleSyncSafety(ctx context.Context, _ *asynq.Task) error {
	return j.syncer.SyncSafety(ctx)
}

func (j *JobService) handleSyncQuotes(ctx context.Context, _ *asynq.Task) error {
	return j.syncer.SyncQuotes(ctx)
}

// handleDigestBuild runs the full digest flow: sync trials, persist any
// detected changes as a digest, and enqueue the email fan-out when the
// digest clears the significance threshold.
func (j *JobService) handleDigestBuild(ctx context.Context, _ *asynq.Task) error {
	changes, names, err := j.syncer.SyncTrials(ctx)
	if err != nil {
		return err
	}

	d, notify, err := j.digests.Record(ctx, changes, names)
	if err != nil {
		return err
	}
	if d == nil {
		j.logger.Info().Msg("Digest run found no changes")
		return nil
	}

	j.logger.Info().
		Int64("digest_id", d.ID).
		Str("significance", d.Significance).
		Int("events", len(d.Events)).
		Msg("Digest recorded")

	if !notify {
		return nil
	}

	recipients, err := j.digests.Recipients(ctx, d)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		j.logger.Info().Int64("digest_id", d.ID).Msg("Digest has no recipients")
		return nil
	}

	task, err := NewDigestEmailTask(d.ID, recipients)
	if err != nil {
		return err
	}
	if _, err := j.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue digest email: %w", err)
	}
	return nil
}

func (j *JobService) handleDigestEmail(ctx context.Context, t *asynq.Task) error {
	var p DigestEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal digest email payload: %w", err)
	}

	d, err := j.digests.Get(ctx, p.DigestID)
	if err != nil {
		return err
	}

	if err := j.mailer.SendDigestEmail(p.Recipients, d); err != nil {
		j.logger.Error().
			Int64("digest_id", p.DigestID).
			Int("recipients", len(p.Recipients)).
			Err(err).
			Msg("Failed to send digest email")
		return err
	}

	j.logger.Info().
		Int64("digest_id", p.DigestID).
		Int("recipients", len(p.Recipients)).
		Msg("Digest email sent")
	return nil
}
