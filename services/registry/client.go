package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

const (
	defaultRequestTimeout = 10 * time.Second
	maxRequestAttempts    = 3
)

var errNotFound = errors.New("resource not found")

// client is a thin JSON HTTP client with network-level retry. Retrying here
// keeps the pipeline core free of transport concerns.
type client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

func newClient(baseURL string, log logger.Logger) *client {
	return &client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		log: log,
	}
}

func (c *client) getJSON(ctx context.Context, path string, out interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "registry.getJSON")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("path", path)

	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxRequestAttempts; attempt++ {
		body, err := c.doOnce(ctx, path)
		if err == nil {
			if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
				tracing.TraceErr(span, decodeErr)
				return errors.Wrapf(decodeErr, "failed to decode response from %s", path)
			}
			return nil
		}
		if errors.Is(err, errNotFound) {
			return err
		}

		lastErr = err
		if attempt < maxRequestAttempts {
			d := b.Duration()
			c.log.Warnf("Request to %s failed (attempt %d/%d), retrying in %v: %v", path, attempt, maxRequestAttempts, d, err)
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	tracing.TraceErr(span, lastErr)
	return errors.Wrapf(lastErr, "request to %s failed after %d attempts", path, maxRequestAttempts)
}

func (c *client) doOnce(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	return io.ReadAll(resp.Body)
}
