package models

import (
	"time"

	"github.com/anidavtyan/email-reporting-system/internal/enum"
)

// ReportJob is one scheduled report generation job. The job key is the
// idempotency key derived from (recipient, report date); the unique index on
// it is what makes scheduling idempotent.
type ReportJob struct {
	ID          string         `gorm:"column:id;type:varchar(50);primaryKey"`
	JobKey      string         `gorm:"column:job_key;type:varchar(255);uniqueIndex;not null"`
	RecipientID string         `gorm:"column:recipient_id;type:varchar(50);index;not null"`
	ReportDate  string         `gorm:"column:report_date;type:varchar(10);not null"`
	Status      enum.JobStatus `gorm:"column:status;type:varchar(20);index;not null"`

	// FireAt is the absolute instant the job becomes due; NextAttemptAt moves
	// forward on retries and leases.
	FireAt        time.Time `gorm:"column:fire_at;type:timestamp;not null"`
	NextAttemptAt time.Time `gorm:"column:next_attempt_at;type:timestamp;index;not null"`

	AttemptCount int    `gorm:"column:attempt_count;default:0"`
	LastError    string `gorm:"column:last_error;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (ReportJob) TableName() string {
	return "report_jobs"
}
