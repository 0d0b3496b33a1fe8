package processor

import (
	"context"
	"fmt"
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

const artifactContentType = "application/pdf"

// ReportProcessor handles one report generation job end to end: resolve the
// recipient, aggregate usage for the report day, render the artifact and
// hand it to the recipient's delivery strategy.
type ReportProcessor struct {
	recipients interfaces.RecipientRegistry
	aggregator interfaces.UsageAggregator
	renderer   interfaces.ReportRenderer
	storage    interfaces.StorageService
	strategies interfaces.StrategyResolver
	events     interfaces.EventPublisher
	log        logger.Logger
}

func NewReportProcessor(
	recipients interfaces.RecipientRegistry,
	aggregator interfaces.UsageAggregator,
	renderer interfaces.ReportRenderer,
	storage interfaces.StorageService,
	strategies interfaces.StrategyResolver,
	events interfaces.EventPublisher,
	log logger.Logger,
) *ReportProcessor {
	return &ReportProcessor{
		recipients: recipients,
		aggregator: aggregator,
		renderer:   renderer,
		storage:    storage,
		strategies: strategies,
		events:     events,
		log:        log,
	}
}

func (p *ReportProcessor) Handle(ctx context.Context, payload dto.ReportJobPayload) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportProcessor.Handle")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRecipient(span, payload.RecipientID)
	tracing.TagReportDate(span, payload.ReportDate)

	reportDate, err := utils.ParseDate(payload.ReportDate)
	if err != nil {
		err = ierrors.Terminal(errors.Wrapf(err, "invalid report date %q", payload.ReportDate))
		tracing.TraceErr(span, err)
		return err
	}

	recipient, err := p.recipients.GetRecipientByID(ctx, payload.RecipientID)
	if err != nil {
		tracing.TraceErr(span, err)
		return p.fail(ctx, payload, "recipient lookup", err)
	}
	if recipient == nil {
		// Recipient removed between scheduling and processing. Not an error,
		// the job is simply obsolete.
		p.log.Warnf("Skipping report job, recipient %s no longer exists", payload.RecipientID)
		span.LogKV("result", "recipient missing, job skipped")
		return nil
	}

	rows, err := p.aggregator.GetUsage(ctx, dto.UsageSearchRequest{
		From:      utils.FormatDate(reportDate.AddDate(0, 0, -1)),
		To:        payload.ReportDate,
		DomainIDs: recipient.AssociatedDomains,
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return p.fail(ctx, payload, "usage aggregation", err)
	}

	artifact, err := p.renderer.Render(ctx, *recipient, rows, reportDate)
	if err != nil {
		tracing.TraceErr(span, err)
		return p.fail(ctx, payload, "report rendering", err)
	}
	span.LogKV("artifact.size", len(artifact))

	deliveryCtx := &dto.DeliveryContext{
		Recipient:      *recipient,
		ReportArtifact: artifact,
		ReportDate:     payload.ReportDate,
	}

	if recipient.PreferredChannel.RequiresDownloadRef() {
		downloadURL, err := p.storeArtifact(ctx, payload, artifact)
		if err != nil {
			tracing.TraceErr(span, err)
			return p.fail(ctx, payload, "artifact upload", err)
		}
		deliveryCtx.ReportDownloadURL = downloadURL
	}

	strategy, err := p.strategies.Strategy(recipient.PreferredChannel)
	if err != nil {
		tracing.TraceErr(span, err)
		return p.fail(ctx, payload, "strategy resolution", err)
	}

	err = strategy.Deliver(ctx, deliveryCtx)
	if err != nil {
		tracing.TraceErr(span, err)
		return p.fail(ctx, payload, "delivery", err)
	}

	p.log.Infof("Report for recipient %s (%s) delivered via %s", recipient.ID, payload.ReportDate, recipient.PreferredChannel)
	p.notifyDelivered(ctx, payload, recipient.PreferredChannel.String())
	return nil
}

func (p *ReportProcessor) storeArtifact(ctx context.Context, payload dto.ReportJobPayload, artifact []byte) (string, error) {
	key := fmt.Sprintf("reports/%s/%s-report.pdf", payload.RecipientID, payload.ReportDate)
	if err := p.storage.Upload(ctx, key, artifact, artifactContentType); err != nil {
		return "", errors.Wrap(err, "failed to upload report artifact")
	}
	return p.storage.GetPublicURL(key), nil
}

// fail wraps err with the stage it happened in and emits a best effort
// failure event. The wrapped error keeps its terminal marker, if any.
func (p *ReportProcessor) fail(ctx context.Context, payload dto.ReportJobPayload, stage string, err error) error {
	p.log.Errorf("Report job for recipient %s (%s) failed at %s: %v", payload.RecipientID, payload.ReportDate, stage, err)
	p.notifyFailed(ctx, payload, stage, err)
	return errors.Wrapf(err, "%s failed", stage)
}

func (p *ReportProcessor) notifyDelivered(ctx context.Context, payload dto.ReportJobPayload, channel string) {
	err := p.events.PublishReportDelivered(ctx, dto.ReportDelivered{
		RecipientID: payload.RecipientID,
		ReportDate:  payload.ReportDate,
		Channel:     channel,
		DeliveredAt: utils.Now().Format(time.RFC3339),
	})
	if err != nil {
		p.log.Warnf("Failed to publish report delivered event: %v", err)
	}
}

func (p *ReportProcessor) notifyFailed(ctx context.Context, payload dto.ReportJobPayload, stage string, cause error) {
	err := p.events.PublishReportFailed(ctx, dto.ReportFailed{
		RecipientID: payload.RecipientID,
		ReportDate:  payload.ReportDate,
		Stage:       stage,
		Error:       cause.Error(),
		FailedAt:    utils.Now().Format(time.RFC3339),
	})
	if err != nil {
		p.log.Warnf("Failed to publish report failed event: %v", err)
	}
}
