package interfaces

import (
	"context"
	"time"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
)

// JobState is the queue's view of an enqueued job, keyed by the idempotency
// key. Any state counts as "present" for scheduling purposes.
type JobState struct {
	Key          string
	Status       enum.JobStatus
	FireAt       time.Time
	AttemptCount int
}

// JobQueue is the durable delayed job queue. Enqueue is an atomic
// add-if-absent on the key: it reports false when a job with the same key
// already exists in any state.
type JobQueue interface {
	Enqueue(ctx context.Context, key string, payload dto.ReportJobPayload, delay time.Duration) (bool, error)
	// Get returns (nil, nil) when no job with the key exists.
	Get(ctx context.Context, key string) (*JobState, error)
}

// JobHandler consumes one job payload. A nil return removes the job; a
// terminal error dead-letters it; anything else triggers the queue's retry
// policy.
type JobHandler interface {
	Handle(ctx context.Context, payload dto.ReportJobPayload) error
}
