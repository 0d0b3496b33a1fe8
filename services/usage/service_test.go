package usage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type fakeMetricsSource struct {
	mu          sync.Mutex
	inFlight    int32
	maxInFlight int32
	failFor     map[string]error
}

func (f *fakeMetricsSource) GetDomainUsage(ctx context.Context, domainID, from, to string) (*dto.DomainUsage, error) {
	current := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	f.mu.Lock()
	if current > f.maxInFlight {
		f.maxInFlight = current
	}
	err := f.failFor[domainID]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &dto.DomainUsage{
		DomainID:       domainID,
		DomainName:     domainID + ".com",
		EmailVolume:    100,
		SPFPassRatio:   99.1,
		DMARCPassRatio: 97.5,
	}, nil
}

type fakeDomainRegistry struct {
	lookups int32
}

func (f *fakeDomainRegistry) GetDomainByID(ctx context.Context, id string) (*dto.Domain, error) {
	atomic.AddInt32(&f.lookups, 1)
	return &dto.Domain{ID: id, Name: id + ".example.com"}, nil
}

func domainIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("domain-%03d", i)
	}
	return ids
}

func TestGetUsage_PreservesInputOrder(t *testing.T) {
	metrics := &fakeMetricsSource{}
	aggregator := NewAggregator(metrics, &fakeDomainRegistry{}, getLogger(), Config{ChunkSize: 50})

	ids := domainIDs(120)
	rows, err := aggregator.GetUsage(context.Background(), dto.UsageSearchRequest{
		From:      "2025-05-30",
		To:        "2025-05-31",
		DomainIDs: ids,
	})

	require.NoError(t, err)
	require.Len(t, rows, 120)
	for i, row := range rows {
		assert.Equal(t, ids[i], row.DomainID)
	}
}

func TestGetUsage_BoundsConcurrencyToChunkSize(t *testing.T) {
	metrics := &fakeMetricsSource{}
	aggregator := NewAggregator(metrics, &fakeDomainRegistry{}, getLogger(), Config{ChunkSize: 10})

	_, err := aggregator.GetUsage(context.Background(), dto.UsageSearchRequest{
		From:      "2025-05-30",
		To:        "2025-05-31",
		DomainIDs: domainIDs(35),
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, metrics.maxInFlight, int32(10))
}

func TestGetUsage_FailFast(t *testing.T) {
	metrics := &fakeMetricsSource{
		failFor: map[string]error{
			"domain-037": errors.New("metrics backend unavailable"),
		},
	}
	aggregator := NewAggregator(metrics, &fakeDomainRegistry{}, getLogger(), Config{ChunkSize: 50})

	rows, err := aggregator.GetUsage(context.Background(), dto.UsageSearchRequest{
		From:      "2025-05-30",
		To:        "2025-05-31",
		DomainIDs: domainIDs(60),
	})

	require.Error(t, err)
	assert.Nil(t, rows)
	assert.Contains(t, err.Error(), "usage aggregation failed")
	assert.Contains(t, err.Error(), "domain-037")
}

func TestGetUsage_EmptyDomainList(t *testing.T) {
	aggregator := NewAggregator(&fakeMetricsSource{}, &fakeDomainRegistry{}, getLogger(), Config{})

	rows, err := aggregator.GetUsage(context.Background(), dto.UsageSearchRequest{
		From: "2025-05-30",
		To:   "2025-05-31",
	})

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetUsage_EnrichesMissingDomainName(t *testing.T) {
	metrics := &missingNameMetricsSource{}
	domains := &fakeDomainRegistry{}
	aggregator := NewAggregator(metrics, domains, getLogger(), Config{})

	rows, err := aggregator.GetUsage(context.Background(), dto.UsageSearchRequest{
		From:      "2025-05-30",
		To:        "2025-05-31",
		DomainIDs: []string{"domain-001"},
	})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "domain-001.example.com", rows[0].DomainName)
	assert.Equal(t, int32(1), domains.lookups)
}

type missingNameMetricsSource struct{}

func (m *missingNameMetricsSource) GetDomainUsage(ctx context.Context, domainID, from, to string) (*dto.DomainUsage, error) {
	return &dto.DomainUsage{DomainID: domainID, EmailVolume: 5}, nil
}
