package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
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

type fakeWebhookSender struct {
	calls    int
	urls     []string
	payloads []interface{}
	errs     []error
}

func (f *fakeWebhookSender) Post(ctx context.Context, url string, payload interface{}) error {
	f.calls++
	f.urls = append(f.urls, url)
	f.payloads = append(f.payloads, payload)
	if f.calls <= len(f.errs) {
		return f.errs[f.calls-1]
	}
	return nil
}

func noSleep(ctx context.Context, d time.Duration) error {
	return nil
}

func webhookDeliveryContext() *dto.DeliveryContext {
	return &dto.DeliveryContext{
		Recipient: dto.Recipient{
			ID:               "rec-1",
			Email:            "ops@acme.com",
			PreferredChannel: enum.DeliveryChannelWebhook,
			CallbackURL:      "https://hooks.acme.com/reports",
		},
		ReportArtifact:    []byte("pdf-bytes"),
		ReportDownloadURL: "https://cdn.acme.com/reports/rec-1/2025-05-31-report.pdf",
		ReportDate:        "2025-05-31",
	}
}

func TestWebhookStrategy_PostsDownloadReference(t *testing.T) {
	sender := &fakeWebhookSender{}
	s := NewWebhookStrategy(sender, getLogger(), RetryConfig{})
	s.sleep = noSleep

	err := s.Deliver(context.Background(), webhookDeliveryContext())

	require.NoError(t, err)
	require.Equal(t, 1, sender.calls)
	assert.Equal(t, "https://hooks.acme.com/reports", sender.urls[0])

	payload, ok := sender.payloads[0].(dto.WebhookPayload)
	require.True(t, ok)
	assert.Equal(t, "rec-1", payload.RecipientID)
	assert.Equal(t, "https://cdn.acme.com/reports/rec-1/2025-05-31-report.pdf", payload.DownloadURL)
	assert.Equal(t, "2025-05-31", payload.ReportDate)
	assert.NotEmpty(t, payload.GeneratedAt)
}

func TestWebhookStrategy_MissingDownloadRefFailsWithoutNetworkCall(t *testing.T) {
	sender := &fakeWebhookSender{}
	s := NewWebhookStrategy(sender, getLogger(), RetryConfig{})
	s.sleep = noSleep

	deliveryCtx := webhookDeliveryContext()
	deliveryCtx.ReportDownloadURL = ""

	err := s.Deliver(context.Background(), deliveryCtx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrMissingDownloadRef)
	assert.True(t, ierrors.IsTerminal(err))
	assert.Zero(t, sender.calls)
}

func TestWebhookStrategy_RetriesTransientFailures(t *testing.T) {
	sender := &fakeWebhookSender{errs: []error{
		errors.New("503 from callback"),
		errors.New("503 from callback"),
	}}
	s := NewWebhookStrategy(sender, getLogger(), RetryConfig{})
	s.sleep = noSleep

	err := s.Deliver(context.Background(), webhookDeliveryContext())

	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
}

func TestWebhookStrategy_ExhaustsAtThreeAttempts(t *testing.T) {
	sender := &fakeWebhookSender{errs: []error{
		errors.New("503 from callback"),
		errors.New("503 from callback"),
		errors.New("503 from callback"),
		errors.New("503 from callback"),
	}}
	s := NewWebhookStrategy(sender, getLogger(), RetryConfig{})

	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	err := s.Deliver(context.Background(), webhookDeliveryContext())

	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Contains(t, err.Error(), "webhook delivery to https://hooks.acme.com/reports failed")

	// Pre-jitter backoffs are 1s and 2s; jitter adds at most 30% on top.
	require.Len(t, delays, 2)
	assert.GreaterOrEqual(t, delays[0], time.Second)
	assert.Less(t, delays[0], 1300*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 2*time.Second)
	assert.Less(t, delays[1], 2600*time.Millisecond)
}
