package usage

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

const (
	DefaultChunkSize   = 50
	DefaultChunkPacing = 250 * time.Millisecond
)

type Config struct {
	ChunkSize   int
	ChunkPacing time.Duration
}

// Aggregator gathers per-domain usage metrics in bounded-concurrency chunks.
// Chunks run strictly in sequence; inside a chunk every lookup runs
// concurrently, so outbound fan-out never exceeds the chunk size.
type Aggregator struct {
	metrics interfaces.UsageMetricsSource
	domains interfaces.DomainRegistry
	log     logger.Logger
	cfg     Config
}

func NewAggregator(metrics interfaces.UsageMetricsSource, domains interfaces.DomainRegistry, log logger.Logger, cfg Config) *Aggregator {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkPacing < 0 {
		cfg.ChunkPacing = DefaultChunkPacing
	}
	return &Aggregator{
		metrics: metrics,
		domains: domains,
		log:     log,
		cfg:     cfg,
	}
}

// GetUsage returns one record per requested domain id, in input order. If any
// single lookup fails the whole aggregation fails; no partial result set is
// ever returned.
func (a *Aggregator) GetUsage(ctx context.Context, request dto.UsageSearchRequest) ([]dto.DomainUsage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "UsageAggregator.GetUsage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("domainCount", len(request.DomainIDs), "from", request.From, "to", request.To)

	results := make([]dto.DomainUsage, len(request.DomainIDs))
	chunkCount := (len(request.DomainIDs) + a.cfg.ChunkSize - 1) / a.cfg.ChunkSize

	for start := 0; start < len(request.DomainIDs); start += a.cfg.ChunkSize {
		end := start + a.cfg.ChunkSize
		if end > len(request.DomainIDs) {
			end = len(request.DomainIDs)
		}
		chunk := request.DomainIDs[start:end]
		a.log.Debugf("Processing usage chunk %d/%d with %d domains", start/a.cfg.ChunkSize+1, chunkCount, len(chunk))

		g, gctx := errgroup.WithContext(ctx)
		for i, domainID := range chunk {
			idx := start + i
			domainID := domainID
			g.Go(func() error {
				record, err := a.fetchDomainUsage(gctx, domainID, request.From, request.To)
				if err != nil {
					return err
				}
				results[idx] = *record
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "usage aggregation failed")
		}

		if end < len(request.DomainIDs) && a.cfg.ChunkPacing > 0 {
			select {
			case <-time.After(a.cfg.ChunkPacing):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return results, nil
}

func (a *Aggregator) fetchDomainUsage(ctx context.Context, domainID, from, to string) (*dto.DomainUsage, error) {
	record, err := a.metrics.GetDomainUsage(ctx, domainID, from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "usage lookup for domain %s", domainID)
	}

	if record.DomainName == "" {
		domain, err := a.domains.GetDomainByID(ctx, domainID)
		if err != nil {
			return nil, errors.Wrapf(err, "domain lookup for %s", domainID)
		}
		record.DomainName = domain.Name
	}

	return record, nil
}
