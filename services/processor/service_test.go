package processor

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/enum"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type fakeRecipients struct {
	recipient *dto.Recipient
	err       error
}

func (f *fakeRecipients) GetRecipients(ctx context.Context) ([]dto.Recipient, error) {
	if f.recipient == nil {
		return nil, nil
	}
	return []dto.Recipient{*f.recipient}, nil
}

func (f *fakeRecipients) GetRecipientByID(ctx context.Context, id string) (*dto.Recipient, error) {
	return f.recipient, f.err
}

type fakeAggregator struct {
	request dto.UsageSearchRequest
	rows    []dto.DomainUsage
	err     error
}

func (f *fakeAggregator) GetUsage(ctx context.Context, request dto.UsageSearchRequest) ([]dto.DomainUsage, error) {
	f.request = request
	return f.rows, f.err
}

type fakeRenderer struct {
	artifact []byte
	err      error
	calls    int
}

func (f *fakeRenderer) Render(ctx context.Context, recipient dto.Recipient, rows []dto.DomainUsage, reportDate time.Time) ([]byte, error) {
	f.calls++
	return f.artifact, f.err
}

type fakeStorage struct {
	uploadedKey  string
	uploadedData []byte
	uploadErr    error
}

func (f *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.uploadedKey = key
	f.uploadedData = data
	return f.uploadErr
}

func (f *fakeStorage) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	return nil
}

func (f *fakeStorage) GetPublicURL(key string) string {
	return "https://cdn.acme.com/" + key
}

type fakeStrategy struct {
	deliveryCtx *dto.DeliveryContext
	err         error
}

func (f *fakeStrategy) Deliver(ctx context.Context, deliveryCtx *dto.DeliveryContext) error {
	f.deliveryCtx = deliveryCtx
	return f.err
}

type fakeResolver struct {
	strategy interfaces.DeliveryStrategy
	err      error
	channel  enum.DeliveryChannel
}

func (f *fakeResolver) Strategy(channel enum.DeliveryChannel) (interfaces.DeliveryStrategy, error) {
	f.channel = channel
	return f.strategy, f.err
}

type fakeEvents struct {
	delivered []dto.ReportDelivered
	failed    []dto.ReportFailed
}

func (f *fakeEvents) PublishReportDelivered(ctx context.Context, event dto.ReportDelivered) error {
	f.delivered = append(f.delivered, event)
	return nil
}

func (f *fakeEvents) PublishReportFailed(ctx context.Context, event dto.ReportFailed) error {
	f.failed = append(f.failed, event)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

type processorFixture struct {
	recipients *fakeRecipients
	aggregator *fakeAggregator
	renderer   *fakeRenderer
	storage    *fakeStorage
	strategy   *fakeStrategy
	resolver   *fakeResolver
	events     *fakeEvents
	processor  *ReportProcessor
}

func newFixture(recipient *dto.Recipient) *processorFixture {
	f := &processorFixture{
		recipients: &fakeRecipients{recipient: recipient},
		aggregator: &fakeAggregator{rows: []dto.DomainUsage{{DomainID: "domain-1", DomainName: "acme.com", EmailVolume: 42}}},
		renderer:   &fakeRenderer{artifact: []byte("pdf-bytes")},
		storage:    &fakeStorage{},
		strategy:   &fakeStrategy{},
		events:     &fakeEvents{},
	}
	f.resolver = &fakeResolver{strategy: f.strategy}
	f.processor = NewReportProcessor(f.recipients, f.aggregator, f.renderer, f.storage, f.resolver, f.events, getLogger())
	return f
}

func emailRecipient() *dto.Recipient {
	return &dto.Recipient{
		ID:                "rec-1",
		Email:             "ops@acme.com",
		Timezone:          "UTC",
		PreferredChannel:  enum.DeliveryChannelEmail,
		AssociatedDomains: []string{"domain-1"},
	}
}

func webhookRecipient() *dto.Recipient {
	r := emailRecipient()
	r.PreferredChannel = enum.DeliveryChannelWebhook
	r.CallbackURL = "https://hooks.acme.com/reports"
	return r
}

func payload() dto.ReportJobPayload {
	return dto.ReportJobPayload{RecipientID: "rec-1", ReportDate: "2025-05-31"}
}

func TestHandle_EmailHappyPath(t *testing.T) {
	f := newFixture(emailRecipient())

	err := f.processor.Handle(context.Background(), payload())

	require.NoError(t, err)
	assert.Equal(t, enum.DeliveryChannelEmail, f.resolver.channel)

	require.NotNil(t, f.strategy.deliveryCtx)
	assert.Equal(t, []byte("pdf-bytes"), f.strategy.deliveryCtx.ReportArtifact)
	assert.Empty(t, f.strategy.deliveryCtx.ReportDownloadURL)
	assert.Equal(t, "2025-05-31", f.strategy.deliveryCtx.ReportDate)

	// Email channel never touches object storage.
	assert.Empty(t, f.storage.uploadedKey)

	require.Len(t, f.events.delivered, 1)
	assert.Equal(t, "rec-1", f.events.delivered[0].RecipientID)
	assert.Equal(t, "email", f.events.delivered[0].Channel)
	assert.Empty(t, f.events.failed)
}

func TestHandle_UsageWindowIsPriorDay(t *testing.T) {
	f := newFixture(emailRecipient())

	err := f.processor.Handle(context.Background(), payload())

	require.NoError(t, err)
	assert.Equal(t, "2025-05-30", f.aggregator.request.From)
	assert.Equal(t, "2025-05-31", f.aggregator.request.To)
	assert.Equal(t, []string{"domain-1"}, f.aggregator.request.DomainIDs)
}

func TestHandle_WebhookUploadsArtifactAndAttachesDownloadRef(t *testing.T) {
	f := newFixture(webhookRecipient())

	err := f.processor.Handle(context.Background(), payload())

	require.NoError(t, err)
	assert.Equal(t, "reports/rec-1/2025-05-31-report.pdf", f.storage.uploadedKey)
	assert.Equal(t, []byte("pdf-bytes"), f.storage.uploadedData)

	require.NotNil(t, f.strategy.deliveryCtx)
	assert.Equal(t, "https://cdn.acme.com/reports/rec-1/2025-05-31-report.pdf", f.strategy.deliveryCtx.ReportDownloadURL)
}

func TestHandle_MissingRecipientIsSkippedWithoutError(t *testing.T) {
	f := newFixture(nil)

	err := f.processor.Handle(context.Background(), payload())

	require.NoError(t, err)
	assert.Nil(t, f.strategy.deliveryCtx)
	assert.Zero(t, f.renderer.calls)
	assert.Empty(t, f.events.delivered)
	assert.Empty(t, f.events.failed)
}

func TestHandle_InvalidReportDateIsTerminal(t *testing.T) {
	f := newFixture(emailRecipient())

	err := f.processor.Handle(context.Background(), dto.ReportJobPayload{RecipientID: "rec-1", ReportDate: "31/05/2025"})

	require.Error(t, err)
	assert.True(t, ierrors.IsTerminal(err))
}

func TestHandle_AggregationFailurePropagatesWithStage(t *testing.T) {
	f := newFixture(emailRecipient())
	f.aggregator.err = errors.New("metrics backend unavailable")

	err := f.processor.Handle(context.Background(), payload())

	require.Error(t, err)
	assert.False(t, ierrors.IsTerminal(err))
	assert.Contains(t, err.Error(), "usage aggregation failed")
	assert.Zero(t, f.renderer.calls)

	require.Len(t, f.events.failed, 1)
	assert.Equal(t, "usage aggregation", f.events.failed[0].Stage)
}

func TestHandle_RenderFailurePropagates(t *testing.T) {
	f := newFixture(emailRecipient())
	f.renderer.err = errors.New("render exploded")

	err := f.processor.Handle(context.Background(), payload())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "report rendering failed")
	assert.Nil(t, f.strategy.deliveryCtx)
}

func TestHandle_UploadFailurePropagates(t *testing.T) {
	f := newFixture(webhookRecipient())
	f.storage.uploadErr = errors.New("bucket unavailable")

	err := f.processor.Handle(context.Background(), payload())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact upload failed")
	assert.Nil(t, f.strategy.deliveryCtx)
}

func TestHandle_UnknownChannelStaysTerminal(t *testing.T) {
	f := newFixture(emailRecipient())
	f.resolver.strategy = nil
	f.resolver.err = ierrors.Terminal(ierrors.ErrUnknownChannel)

	err := f.processor.Handle(context.Background(), payload())

	require.Error(t, err)
	assert.True(t, ierrors.IsTerminal(err))
}

func TestHandle_DeliveryFailurePublishesFailureEvent(t *testing.T) {
	f := newFixture(emailRecipient())
	f.strategy.err = errors.New("smtp down")

	err := f.processor.Handle(context.Background(), payload())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery failed")

	require.Len(t, f.events.failed, 1)
	assert.Equal(t, "delivery", f.events.failed[0].Stage)
	assert.Empty(t, f.events.delivered)
}
