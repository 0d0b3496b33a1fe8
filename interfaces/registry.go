package interfaces

import (
	"context"

	"github.com/anidavtyan/email-reporting-system/dto"
)

// RecipientRegistry reads recipients from the external registry service.
// Network-level retry is handled inside the client, not by callers.
type RecipientRegistry interface {
	GetRecipients(ctx context.Context) ([]dto.Recipient, error)
	// GetRecipientByID returns (nil, nil) when the recipient does not exist.
	GetRecipientByID(ctx context.Context, id string) (*dto.Recipient, error)
}

type DomainRegistry interface {
	GetDomainByID(ctx context.Context, id string) (*dto.Domain, error)
}

// UsageMetricsSource fetches usage metrics for a single domain over a date
// range. The aggregator owns fan-out and chunking on top of it.
type UsageMetricsSource interface {
	GetDomainUsage(ctx context.Context, domainID, from, to string) (*dto.DomainUsage, error)
}
