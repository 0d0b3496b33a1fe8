package registry

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	ierrors "github.com/anidavtyan/email-reporting-system/internal/errors"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type domainRegistry struct {
	client *client
}

func NewDomainRegistry(baseURL string, log logger.Logger) interfaces.DomainRegistry {
	return &domainRegistry{
		client: newClient(baseURL, log),
	}
}

func (s *domainRegistry) GetDomainByID(ctx context.Context, id string) (*dto.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRegistry.GetDomainByID")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var domain dto.Domain
	err := s.client.getJSON(ctx, fmt.Sprintf("/domains/%s", id), &domain)
	if errors.Is(err, errNotFound) {
		return nil, errors.Wrapf(ierrors.ErrDomainNotFound, "domain %s", id)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &domain, nil
}
