package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	"github.com/anidavtyan/email-reporting-system/internal/models"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

type reportJobRepository struct {
	db *gorm.DB
}

func NewReportJobRepository(db *gorm.DB) interfaces.ReportJobRepository {
	return &reportJobRepository{
		db: db,
	}
}

func (r *reportJobRepository) AddIfAbsent(ctx context.Context, job *models.ReportJob) (bool, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.AddIfAbsent")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagJobKey(span, job.JobKey)

	now := utils.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_key"}},
			DoNothing: true,
		}).
		Create(job)
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *reportJobRepository) GetByKey(ctx context.Context, jobKey string) (*models.ReportJob, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.GetByKey")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagJobKey(span, jobKey)

	var job models.ReportJob
	err := r.db.WithContext(ctx).
		Where("job_key = ?", jobKey).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return &job, nil
}

// Statuses a worker may claim. Processing is included so that rows whose
// lease expired without a terminal mark (worker crash) are picked up again.
var claimableStatuses = []enum.JobStatus{
	enum.JobStatusScheduled,
	enum.JobStatusFailed,
	enum.JobStatusProcessing,
}

// ClaimDue leases due jobs with SKIP LOCKED so concurrent workers never grab
// the same row. The lease pushes next_attempt_at forward; a crashed worker's
// jobs become claimable again once the lease expires.
func (r *reportJobRepository) ClaimDue(ctx context.Context, limit int, lease time.Duration) ([]models.ReportJob, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.ClaimDue")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var jobs []models.ReportJob
	leaseSeconds := int(lease / time.Second)
	raw := `
		WITH cte AS (
		  SELECT id
		  FROM report_jobs
		  WHERE status IN ?
			AND next_attempt_at <= now()
		  ORDER BY next_attempt_at
		  LIMIT ?
		  FOR UPDATE SKIP LOCKED
		)
		UPDATE report_jobs j
		SET status = ?,
			next_attempt_at = now() + (? * interval '1 second'),
			updated_at = now()
		FROM cte
		WHERE j.id = cte.id
		RETURNING j.id, j.job_key, j.recipient_id, j.report_date, j.status,
			j.fire_at, j.next_attempt_at, j.attempt_count, j.last_error,
			j.created_at, j.updated_at;
		`

	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err := tx.Raw(raw,
		claimableStatuses,
		limit,
		enum.JobStatusProcessing, leaseSeconds,
	).Scan(&jobs).Error; err != nil {
		_ = tx.Rollback()
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}

	return jobs, nil
}

func (r *reportJobRepository) MarkCompleted(ctx context.Context, id string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.MarkCompleted")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ReportJob{}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *reportJobRepository) MarkFailed(ctx context.Context, id string, attemptCount int, lastError string, nextAttemptAt time.Time) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.MarkFailed")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	err := r.db.WithContext(ctx).
		Model(&models.ReportJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":          enum.JobStatusFailed,
			"attempt_count":   attemptCount,
			"last_error":      lastError,
			"next_attempt_at": nextAttemptAt,
			"updated_at":      utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *reportJobRepository) MarkDeadLettered(ctx context.Context, id string, attemptCount int, lastError string) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.MarkDeadLettered")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	err := r.db.WithContext(ctx).
		Model(&models.ReportJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        enum.JobStatusDeadLettered,
			"attempt_count": attemptCount,
			"last_error":    lastError,
			"updated_at":    utils.Now(),
		}).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return err
	}
	return nil
}

func (r *reportJobRepository) ListRecent(ctx context.Context, limit int) ([]models.ReportJob, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ReportJobRepository.ListRecent")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var jobs []models.ReportJob
	err := r.db.WithContext(ctx).
		Order("updated_at desc").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, err
	}
	return jobs, nil
}
