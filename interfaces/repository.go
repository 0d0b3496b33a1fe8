package interfaces

import (
	"context"
	"time"

	"github.com/anidavtyan/email-reporting-system/internal/models"
)

// ReportJobRepository is the persistence layer behind the job queue.
type ReportJobRepository interface {
	// AddIfAbsent inserts the job unless one with the same job key exists, in
	// which case it reports false. The check and insert are a single atomic
	// statement.
	AddIfAbsent(ctx context.Context, job *models.ReportJob) (bool, error)
	// GetByKey returns (nil, nil) when no job with the key exists.
	GetByKey(ctx context.Context, jobKey string) (*models.ReportJob, error)
	// ClaimDue leases up to limit due jobs for processing. Claimed jobs are
	// invisible to other workers until the lease expires.
	ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.ReportJob, error)
	// MarkCompleted removes the job row (remove-on-success).
	MarkCompleted(ctx context.Context, id string) error
	// MarkFailed records the error and schedules the next attempt.
	MarkFailed(ctx context.Context, id string, attemptCount int, lastError string, nextAttemptAt time.Time) error
	// MarkDeadLettered retains the job row for inspection (retain-on-failure).
	MarkDeadLettered(ctx context.Context, id string, attemptCount int, lastError string) error
	ListRecent(ctx context.Context, limit int) ([]models.ReportJob, error)
}
