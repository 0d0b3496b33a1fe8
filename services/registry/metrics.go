package registry

import (
	"context"
	"fmt"
	"net/url"

	"github.com/opentracing/opentracing-go"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type usageMetricsClient struct {
	client *client
}

// NewUsageMetricsClient reads per-domain usage metrics from the volume usage
// API. One call per domain; the aggregator bounds the fan-out.
func NewUsageMetricsClient(baseURL string, log logger.Logger) interfaces.UsageMetricsSource {
	return &usageMetricsClient{
		client: newClient(baseURL, log),
	}
}

func (s *usageMetricsClient) GetDomainUsage(ctx context.Context, domainID, from, to string) (*dto.DomainUsage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "UsageMetricsClient.GetDomainUsage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domainId", domainID, "from", from, "to", to)

	path := fmt.Sprintf("/volume-usage/%s?from=%s&to=%s",
		domainID, url.QueryEscape(from), url.QueryEscape(to))

	var usage dto.DomainUsage
	if err := s.client.getJSON(ctx, path, &usage); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	usage.DomainID = domainID
	return &usage, nil
}
