package events

import (
	"context"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
)

type noopPublisher struct{}

// NewNoopPublisher is used when no RabbitMQ URL is configured.
func NewNoopPublisher() interfaces.EventPublisher {
	return &noopPublisher{}
}

func (n *noopPublisher) PublishReportDelivered(ctx context.Context, event dto.ReportDelivered) error {
	return nil
}

func (n *noopPublisher) PublishReportFailed(ctx context.Context, event dto.ReportFailed) error {
	return nil
}

func (n *noopPublisher) Close() error {
	return nil
}
