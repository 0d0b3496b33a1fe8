package interfaces

import (
	"context"
	"time"

	"github.com/anidavtyan/email-reporting-system/dto"
)

// UsageAggregator returns one usage record per requested domain id, in input
// order. Any single lookup failure fails the whole aggregation.
type UsageAggregator interface {
	GetUsage(ctx context.Context, request dto.UsageSearchRequest) ([]dto.DomainUsage, error)
}

// ReportRenderer turns recipient context and usage rows into a report
// artifact. Pure from the caller's perspective.
type ReportRenderer interface {
	Render(ctx context.Context, recipient dto.Recipient, rows []dto.DomainUsage, reportDate time.Time) ([]byte, error)
}
