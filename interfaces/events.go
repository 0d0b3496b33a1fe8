package interfaces

import (
	"context"

	"github.com/anidavtyan/email-reporting-system/dto"
)

// EventPublisher emits report lifecycle notifications. Publishing is best
// effort; failures must not fail the job that triggered them.
type EventPublisher interface {
	PublishReportDelivered(ctx context.Context, event dto.ReportDelivered) error
	PublishReportFailed(ctx context.Context, event dto.ReportFailed) error
	Close() error
}
