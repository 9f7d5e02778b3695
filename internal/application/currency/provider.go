package currency

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/receivables/internal/domain/currency"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a loaded rate table is served before reloading
const DefaultCacheTTL = 5 * time.Minute

// maxMisses bounds the remembered fallback notices
const maxMisses = 100

// RateProviderConfig holds configuration for the rate provider
type RateProviderConfig struct {
	// Seeds are written to the repository when it is empty, and served if the
	// repository stays empty.
	Seeds     []currency.Rate
	Fallback  valueobject.Currency
	Reference valueobject.Currency
	CacheTTL  time.Duration
	Logger    *zap.Logger
	Metrics   *telemetry.ReceivablesMetrics
}

// RateProvider serves the current exchange rate table.
// Tables are cached for CacheTTL and concurrent reloads share one load.
type RateProvider struct {
	repo      currency.RateRepository
	seeds     []currency.Rate
	fallback  valueobject.Currency
	reference valueobject.Currency
	ttl       time.Duration
	logger    *zap.Logger
	metrics   *telemetry.ReceivablesMetrics
	now       func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	table    *currency.RateTable
	loadedAt time.Time

	missMu sync.Mutex
	misses []string
	seen   map[string]struct{}
}

// NewRateProvider creates a new RateProvider
func NewRateProvider(repo currency.RateRepository, cfg RateProviderConfig) *RateProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RateProvider{
		repo:      repo,
		seeds:     cfg.Seeds,
		fallback:  cfg.Fallback,
		reference: cfg.Reference,
		ttl:       ttl,
		logger:    logger,
		metrics:   cfg.Metrics,
		now:       time.Now,
		seen:      make(map[string]struct{}),
	}
}

// Seed writes the configured rates when the repository holds none
func (p *RateProvider) Seed(ctx context.Context) error {
	if len(p.seeds) == 0 {
		return nil
	}
	seeded, err := p.repo.SeedIfEmpty(ctx, p.seeds)
	if err != nil {
		return shared.AsTransient("Failed to seed exchange rates", err)
	}
	if seeded {
		p.logger.Info("Exchange rate table seeded from configuration", zap.Int("rates", len(p.seeds)))
		p.Invalidate()
	}
	return nil
}

// Table returns the cached rate table, reloading it when stale.
// A failed reload keeps serving the previous table.
func (p *RateProvider) Table(ctx context.Context) (*currency.RateTable, error) {
	p.mu.RLock()
	table, loadedAt := p.table, p.loadedAt
	p.mu.RUnlock()
	if table != nil && p.now().Sub(loadedAt) < p.ttl {
		return table, nil
	}

	v, err, _ := p.group.Do("rates", func() (any, error) {
		return p.load(ctx)
	})
	if err != nil {
		if table != nil {
			p.logger.Warn("Exchange rate reload failed, serving previous table", zap.Error(err))
			return table, nil
		}
		return nil, err
	}
	return v.(*currency.RateTable), nil
}

func (p *RateProvider) load(ctx context.Context) (*currency.RateTable, error) {
	var (
		table *currency.RateTable
		err   error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationRateReload, nil), func(ctx context.Context) {
		table, err = p.loadTable(ctx)
	})
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.table = table
	p.loadedAt = p.now()
	p.mu.Unlock()
	return table, nil
}

func (p *RateProvider) loadTable(ctx context.Context) (*currency.RateTable, error) {
	rates, err := p.repo.FindAll(ctx)
	if err != nil {
		return nil, shared.AsTransient("Failed to load exchange rates", err)
	}
	if len(rates) == 0 {
		rates = p.seeds
	}
	table, err := currency.NewRateTable(rates, p.fallback, p.reference)
	if err != nil {
		p.logger.Error("Exchange rate table is misconfigured", zap.Error(err))
		return nil, err
	}
	p.logger.Debug("Exchange rate table loaded",
		zap.Int("rates", len(rates)),
		zap.String("base", table.Base().String()))
	return table, nil
}

// Invalidate drops the cached table; the next Table call reloads it
func (p *RateProvider) Invalidate() {
	p.mu.Lock()
	p.table = nil
	p.mu.Unlock()
}

// RecordMiss logs a fallback rate notice returned by a conversion.
// Errors other than EXCHANGE_RATE_MISSING config errors are ignored.
func (p *RateProvider) RecordMiss(ctx context.Context, code valueobject.Currency, err error) {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Code != "EXCHANGE_RATE_MISSING" {
		return
	}
	p.metrics.RateFallback(ctx, code.String())

	p.missMu.Lock()
	defer p.missMu.Unlock()
	if _, ok := p.seen[de.Message]; ok {
		return
	}
	p.logger.Warn("Exchange rate missing, using fallback currency",
		zap.String("currency", code.String()),
		zap.String("detail", de.Message))
	if len(p.misses) >= maxMisses {
		return
	}
	p.seen[de.Message] = struct{}{}
	p.misses = append(p.misses, de.Message)
}

// Misses returns the distinct fallback notices recorded so far
func (p *RateProvider) Misses() []string {
	p.missMu.Lock()
	defer p.missMu.Unlock()
	return append([]string(nil), p.misses...)
}
