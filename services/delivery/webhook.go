package delivery

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

// WebhookStrategy delivers a report by POSTing a download reference to the
// recipient's callback URL. The artifact itself never travels in the payload.
type WebhookStrategy struct {
	sender interfaces.WebhookSender
	log    logger.Logger
	retry  RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewWebhookStrategy(sender interfaces.WebhookSender, log logger.Logger, retry RetryConfig) *WebhookStrategy {
	return &WebhookStrategy{
		sender: sender,
		log:    log,
		retry:  retry.withDefaults(),
	}
}

func (s *WebhookStrategy) Deliver(ctx context.Context, deliveryCtx *dto.DeliveryContext) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "WebhookStrategy.Deliver")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRecipient(span, deliveryCtx.Recipient.ID)
	tracing.TagReportDate(span, deliveryCtx.ReportDate)

	// Precondition, checked before any network I/O.
	if deliveryCtx.ReportDownloadURL == "" {
		err := ierrors.Terminal(errors.Wrapf(ierrors.ErrMissingDownloadRef, "recipient %s", deliveryCtx.Recipient.ID))
		tracing.TraceErr(span, err)
		return err
	}

	payload := dto.WebhookPayload{
		RecipientID: deliveryCtx.Recipient.ID,
		DownloadURL: deliveryCtx.ReportDownloadURL,
		ReportDate:  deliveryCtx.ReportDate,
		GeneratedAt: utils.Now().Format(time.RFC3339),
	}

	err := utils.Retry(ctx, utils.RetryConfig{
		MaxAttempts:    s.retry.MaxAttempts,
		InitialBackoff: s.retry.InitialBackoff,
		MaxJitter:      0.3,
		OperationName:  "sendWebhook",
		Log:            s.log,
		Sleep:          s.sleep,
	}, func() error {
		return s.sender.Post(ctx, deliveryCtx.Recipient.CallbackURL, payload)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "webhook delivery to %s failed", deliveryCtx.Recipient.CallbackURL)
	}

	return nil
}
