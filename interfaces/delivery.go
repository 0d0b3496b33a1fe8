package interfaces

import (
	"context"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
)

// DeliveryStrategy sends one finished report to one recipient. Delivery is
// binary: either the report was delivered or the error is returned.
type DeliveryStrategy interface {
	Deliver(ctx context.Context, deliveryCtx *dto.DeliveryContext) error
}

// StrategyResolver maps a delivery channel to its strategy. A miss is a
// configuration defect and yields a terminal error.
type StrategyResolver interface {
	Strategy(channel enum.DeliveryChannel) (DeliveryStrategy, error)
}

type EmailSender interface {
	Send(ctx context.Context, message dto.EmailMessage) error
}

type WebhookSender interface {
	Post(ctx context.Context, url string, payload interface{}) error
}
