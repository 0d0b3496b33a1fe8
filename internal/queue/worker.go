package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/models"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

type WorkerConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	LeaseDuration    time.Duration
	MaxAttempts      int
	RetryBackoffBase time.Duration
}

// Worker drives job execution: it claims due jobs and hands each one to the
// handler. Success removes the row; a terminal error or exhausted attempts
// dead-letters it; any other failure schedules a retry with exponential
// backoff.
type Worker struct {
	jobs    interfaces.ReportJobRepository
	handler interfaces.JobHandler
	log     logger.Logger
	cfg     WorkerConfig
}

func NewWorker(jobs interfaces.ReportJobRepository, handler interfaces.JobHandler, log logger.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 2 * time.Minute
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = 30 * time.Second
	}
	return &Worker{
		jobs:    jobs,
		handler: handler,
		log:     log,
		cfg:     cfg,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		jobs, err := w.jobs.ClaimDue(ctx, w.cfg.BatchSize, w.cfg.LeaseDuration)
		if err != nil {
			w.log.Errorf("Failed to claim due jobs: %v", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if len(jobs) == 0 {
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for i := range jobs {
			w.processJob(ctx, &jobs[i])
		}
	}
}

func (w *Worker) processJob(ctx context.Context, job *models.ReportJob) {
	span, ctx := tracing.StartTracerSpan(ctx, "Worker.processJob")
	defer span.Finish()
	tracing.TagComponentQueueWorker(span)
	tracing.TagJobKey(span, job.JobKey)
	tracing.TagRecipient(span, job.RecipientID)
	tracing.TagReportDate(span, job.ReportDate)

	payload := dto.ReportJobPayload{
		RecipientID: job.RecipientID,
		ReportDate:  job.ReportDate,
	}

	err := w.handle(ctx, payload)
	if err == nil {
		if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
			tracing.TraceErr(span, err)
			w.log.Errorf("Failed to mark job %s completed: %v", job.JobKey, err)
		}
		return
	}

	tracing.TraceErr(span, err)
	attempts := job.AttemptCount + 1

	if ierrors.IsTerminal(err) {
		w.log.Errorf("Job %s failed terminally after %d attempt(s): %v", job.JobKey, attempts, err)
		if dlErr := w.jobs.MarkDeadLettered(ctx, job.ID, attempts, err.Error()); dlErr != nil {
			w.log.Errorf("Failed to dead-letter job %s: %v", job.JobKey, dlErr)
		}
		return
	}

	if attempts >= w.cfg.MaxAttempts {
		w.log.Errorf("Job %s exhausted %d attempts, dead-lettering: %v", job.JobKey, attempts, err)
		if dlErr := w.jobs.MarkDeadLettered(ctx, job.ID, attempts, err.Error()); dlErr != nil {
			w.log.Errorf("Failed to dead-letter job %s: %v", job.JobKey, dlErr)
		}
		return
	}

	nextAttemptAt := utils.Now().Add(w.retryDelay(attempts))
	w.log.Warnf("Job %s failed (attempt %d/%d), retrying at %s: %v",
		job.JobKey, attempts, w.cfg.MaxAttempts, nextAttemptAt.Format(time.RFC3339), err)
	if mfErr := w.jobs.MarkFailed(ctx, job.ID, attempts, err.Error(), nextAttemptAt); mfErr != nil {
		w.log.Errorf("Failed to record failure for job %s: %v", job.JobKey, mfErr)
	}
}

func (w *Worker) handle(ctx context.Context, payload dto.ReportJobPayload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ierrors.Terminal(newPanicError(r))
		}
	}()
	return w.handler.Handle(ctx, payload)
}

func (w *Worker) retryDelay(attempts int) time.Duration {
	return w.cfg.RetryBackoffBase << (attempts - 1)
}

type panicError struct {
	value interface{}
}

func newPanicError(value interface{}) *panicError {
	return &panicError{value: value}
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic in job handler: %v", e.value)
}
