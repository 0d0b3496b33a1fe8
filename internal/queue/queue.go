package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	"github.com/anidavtyan/email-reporting-system/internal/models"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

// GormJobQueue is the durable delayed job queue over the report_jobs table.
// Add-if-absent rides on the unique job_key index, so concurrent sweeps
// cannot double-enqueue the same (recipient, report date) pair.
type GormJobQueue struct {
	jobs interfaces.ReportJobRepository
}

func NewGormJobQueue(jobs interfaces.ReportJobRepository) *GormJobQueue {
	return &GormJobQueue{
		jobs: jobs,
	}
}

func (q *GormJobQueue) Enqueue(ctx context.Context, key string, payload dto.ReportJobPayload, delay time.Duration) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormJobQueue.Enqueue")
	defer span.Finish()
	tracing.TagJobKey(span, key)
	tracing.TagRecipient(span, payload.RecipientID)
	tracing.TagReportDate(span, payload.ReportDate)

	fireAt := utils.Now().Add(delay)
	job := &models.ReportJob{
		ID:            uuid.NewString(),
		JobKey:        key,
		RecipientID:   payload.RecipientID,
		ReportDate:    payload.ReportDate,
		Status:        enum.JobStatusScheduled,
		FireAt:        fireAt,
		NextAttemptAt: fireAt,
	}

	inserted, err := q.jobs.AddIfAbsent(ctx, job)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	span.LogKV("inserted", inserted, "fireAt", fireAt.Format(time.RFC3339))
	return inserted, nil
}

func (q *GormJobQueue) Get(ctx context.Context, key string) (*interfaces.JobState, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GormJobQueue.Get")
	defer span.Finish()
	tracing.TagJobKey(span, key)

	job, err := q.jobs.GetByKey(ctx, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	return &interfaces.JobState{
		Key:          job.JobKey,
		Status:       job.Status,
		FireAt:       job.FireAt,
		AttemptCount: job.AttemptCount,
	}, nil
}
