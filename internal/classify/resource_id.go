package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/cache"
	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// ResourceIDGenerator computes did:btco resource identifiers. Its two caches
// only avoid duplicate provider round-trips and carry no correctness weight.
type ResourceIDGenerator struct {
	provider provider.Provider
	handler  *resilience.Handler
	network  domain.Network
	log      *slog.Logger

	satCache     *cache.Cache[uint64]   // inscription ID -> owning sat
	satListCache *cache.Cache[[]string] // sat -> ordered inscription IDs
}

// NewResourceIDGenerator builds a generator with TTL-bounded caches.
func NewResourceIDGenerator(p provider.Provider, h *resilience.Handler, network domain.Network, ttl time.Duration, log *slog.Logger) *ResourceIDGenerator {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &ResourceIDGenerator{
		provider:     p,
		handler:      h,
		network:      network,
		log:          log.With("component", "classifier"),
		satCache:     cache.New[uint64](cache.Config{DefaultTTL: ttl, MaxItems: 10000}),
		satListCache: cache.New[[]string](cache.Config{DefaultTTL: ttl, MaxItems: 10000}),
	}
}

// StartCacheSweeps runs the periodic TTL cleanup for both caches.
func (g *ResourceIDGenerator) StartCacheSweeps(ctx context.Context, interval time.Duration) {
	go g.satCache.RunCleanup(ctx, interval)
	go g.satListCache.RunCleanup(ctx, interval)
}

// Generate resolves the owning satoshi and the inscription's zero-based index
// on it, and formats did:btco[:<net>]:<sat>/<index>. A known sat ordinal on
// the inscription skips the first lookup.
func (g *ResourceIDGenerator) Generate(ctx context.Context, insc *domain.Inscription) (string, error) {
	sat, err := g.resolveSat(ctx, insc)
	if err != nil {
		return "", fmt.Errorf("resolve sat for %s: %w", insc.ID, err)
	}

	ids, err := g.resolveSatInscriptions(ctx, sat)
	if err != nil {
		return "", fmt.Errorf("resolve inscriptions on sat %d: %w", sat, err)
	}

	index := -1
	for i, id := range ids {
		if id == insc.ID {
			index = i
			break
		}
	}
	if index < 0 {
		// The provider's sat view can lag the inscription view; fall back to
		// index 0 instead of failing the whole item.
		g.log.Warn("Inscription absent from its own sat list, using index 0",
			"inscription", insc.ID, "sat", sat)
		index = 0
	}

	return g.network.ResourceID(sat, index), nil
}

func (g *ResourceIDGenerator) resolveSat(ctx context.Context, insc *domain.Inscription) (uint64, error) {
	if insc.SatOrdinal != 0 {
		return insc.SatOrdinal, nil
	}

	if sat, ok := g.satCache.Get(insc.ID); ok {
		metrics.CacheHits.WithLabelValues("sat").Inc()
		return sat, nil
	}
	metrics.CacheMisses.WithLabelValues("sat").Inc()

	resolved, err := resilience.Execute(ctx, g.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getInscription", insc.ID,
		func(ctx context.Context) (*domain.Inscription, error) {
			return g.provider.GetInscription(ctx, insc.ID)
		})
	if err != nil {
		return 0, err
	}

	g.satCache.Set(insc.ID, resolved.SatOrdinal)
	return resolved.SatOrdinal, nil
}

func (g *ResourceIDGenerator) resolveSatInscriptions(ctx context.Context, sat uint64) ([]string, error) {
	key := strconv.FormatUint(sat, 10)
	if ids, ok := g.satListCache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("sat-inscriptions").Inc()
		return ids, nil
	}
	metrics.CacheMisses.WithLabelValues("sat-inscriptions").Inc()

	info, err := resilience.Execute(ctx, g.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getSatInfo", sat,
		func(ctx context.Context) (*domain.SatInfo, error) {
			return g.provider.GetSatInfo(ctx, sat)
		})
	if err != nil {
		return nil, err
	}

	g.satListCache.Set(key, info.InscriptionIDs)
	return info.InscriptionIDs, nil
}
