package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names stored in Redis. asynq routes on these strings.
const (
	TaskSyncTrials     = "etl:ctgov"
	TaskSyncTargets    = "etl:opentargets"
	TaskSyncLiterature = "etl:pubmed"
	TaskSyncProteins   = "etl:uniprot"
	TaskSyncStructures = "etl:rcsb"
	TaskSyncSafety     = "etl:openfda"
	TaskSyncQuotes     = "etl:quotes"
	TaskDigestBuild    = "digest:build"
	TaskDigestEmail    = "email:digest"
)

// etlTimeout bounds a single sync run. The trial sync pages through the
// registry for every tracked drug, so these run long by design.
const etlTimeout = 30 * time.Minute

// NewSyncTask constructs an ETL task for one of the etl:* task types.
// Sync tasks carry no payload; the sync scope comes from config and the
// database.
func NewSyncTask(taskType string) *asynq.Task {
	return asynq.NewTask(
		taskType,
		nil,
		asynq.MaxRetry(2),
		asynq.Queue(QueueDefault),
		asynq.Timeout(etlTimeout),
	)
}

// NewQuotesTask constructs the market-quote sync task. Quotes are the
// least important data and go to the low queue.
func NewQuotesTask() *asynq.Task {
	return asynq.NewTask(
		TaskSyncQuotes,
		nil,
		asynq.MaxRetry(2),
		asynq.Queue(QueueLow),
		asynq.Timeout(5*time.Minute),
	)
}

// NewDigestBuildTask constructs the digest run: trial sync, change
// detection, persistence, and the email fan-out enqueue.
func NewDigestBuildTask() *asynq.Task {
	return asynq.NewTask(
		TaskDigestBuild,
		nil,
		asynq.MaxRetry(1),
		asynq.Queue(QueueCritical),
		asynq.Timeout(etlTimeout),
	)
}

// DigestEmailPayload is the JSON payload for the digest email task.
type DigestEmailPayload struct {
	DigestID   int64    `json:"digest_id"`
	Recipients []string `json:"recipients"`
}

// NewDigestEmailTask constructs a task that mails an already-persisted
// digest to its recipients.
func NewDigestEmailTask(digestID int64, recipients []string) (*asynq.Task, error) {
	payload, err := json.Marshal(DigestEmailPayload{
		DigestID:   digestID,
		Recipients: recipients,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskDigestEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	), nil
}
