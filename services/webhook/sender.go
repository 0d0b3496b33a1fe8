package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

const defaultTimeout = 15 * time.Second

type webhookSender struct {
	httpClient *http.Client
}

// NewWebhookSender posts JSON payloads to recipient callback URLs. A non-2xx
// response counts as a failure; retry is owned by the delivery strategy.
func NewWebhookSender() interfaces.WebhookSender {
	return &webhookSender{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

func (s *webhookSender) Post(ctx context.Context, url string, payload interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "WebhookSender.Post")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("url", url)

	body, err := json.Marshal(payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "webhook post to %s failed", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook post to %s returned status %d", url, resp.StatusCode)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
