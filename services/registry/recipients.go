package registry

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type recipientRegistry struct {
	client *client
}

func NewRecipientRegistry(baseURL string, log logger.Logger) interfaces.RecipientRegistry {
	return &recipientRegistry{
		client: newClient(baseURL, log),
	}
}

func (s *recipientRegistry) GetRecipients(ctx context.Context) ([]dto.Recipient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RecipientRegistry.GetRecipients")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var recipients []dto.Recipient
	if err := s.client.getJSON(ctx, "/notifications", &recipients); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("count", len(recipients))
	return recipients, nil
}

func (s *recipientRegistry) GetRecipientByID(ctx context.Context, id string) (*dto.Recipient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "RecipientRegistry.GetRecipientByID")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRecipient(span, id)

	var recipient dto.Recipient
	err := s.client.getJSON(ctx, fmt.Sprintf("/notifications/%s", id), &recipient)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &recipient, nil
}
