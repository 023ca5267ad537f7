// Package control wires the application: storage, provider, resilience kit,
// classifier, worker and admin surface.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/admin"
	"github.com/ordinalsplus/indexer-go/internal/classify"
	"github.com/ordinalsplus/indexer-go/internal/coordinator"
	"github.com/ordinalsplus/indexer-go/internal/core/config"
	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/indexer"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	redisclient "github.com/ordinalsplus/indexer-go/internal/infra/redis"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage/memory"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage/postgres"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage/redisstore"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
	"github.com/ordinalsplus/indexer-go/internal/repository"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// App is the composed application.
type App struct {
	cfg    *config.AppConfig
	worker *indexer.Worker
	server *admin.Server
	coord  *coordinator.Coordinator
	repo   *repository.Repository
	ids    *classify.ResourceIDGenerator

	handler *resilience.Handler
	redis   *redisclient.Client
	db      *postgres.DB
	log     *slog.Logger
}

// New builds the application from configuration.
func New(cfg *config.AppConfig) (*App, error) {
	log := slog.Default()

	// Coordination and resource storage. Redis is the shared store; the
	// in-memory fallback only supports a single local worker.
	var (
		coordStore  storage.CoordinationStore
		resStore    storage.ResourceStore
		redisClient *redisclient.Client
	)
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		store, err := redisstore.New(context.Background(), redisClient)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis store: %w", err)
		}
		coordStore, resStore = store, store
		log.Info("Using Redis coordination store")
	} else {
		store := memory.New()
		coordStore, resStore = store, store
		log.Warn("No Redis configured, using in-memory store (single worker only)")
	}

	// Dead letter queue storage, Postgres when configured.
	var (
		db         *postgres.DB
		dlqStorage resilience.DLQStorage
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		dlqStorage = postgres.NewDLQRepo(db)
		log.Info("Using PostgreSQL DLQ storage")
	} else {
		dlqStorage = resilience.NewMemoryDLQStorage()
	}

	handler := resilience.NewHandler(
		resilience.NewBreakerRegistry(resilience.DefaultBreakerConfig, log),
		resilience.DefaultRetryConfig,
		resilience.NewDeadLetterQueue(dlqStorage, log),
		log,
	)

	var p provider.Provider
	switch cfg.Provider.Type {
	case "hosted":
		p = provider.NewHostedAPI(cfg.Provider.URL, cfg.Provider.APIKey, cfg.Provider.Timeout)
	default:
		p = provider.NewOrdNode(cfg.Provider.URL, cfg.Provider.Timeout)
	}
	log.Info("Provider configured", "type", p.Name(), "url", cfg.Provider.URL)

	ids := classify.NewResourceIDGenerator(p, handler, cfg.Indexer.Network, cfg.Indexer.CacheTTL, log)
	coord := coordinator.New(coordStore, cfg.Indexer.ClaimTTL, log)
	repo := repository.New(resStore, log)

	worker := indexer.New(indexer.Config{
		Mode:             cfg.Indexer.Mode,
		WorkerID:         cfg.Indexer.WorkerID,
		BatchSize:        cfg.Indexer.BatchSize,
		Concurrency:      cfg.Indexer.Concurrency,
		PollInterval:     cfg.Indexer.PollInterval,
		Lookback:         cfg.Indexer.Lookback,
		StartBlock:       cfg.Indexer.StartBlock,
		EndBlock:         cfg.Indexer.EndBlock,
		AdvanceOnFailure: cfg.Indexer.AdvancePastFailures(),
	}, coord, repo, p, handler, ids, log)

	// Failed block fetches can be replayed once the provider recovers.
	handler.DLQ().RegisterReplay("getBlockInscriptions", func(ctx context.Context, payload json.RawMessage) error {
		var height uint64
		if err := json.Unmarshal(payload, &height); err != nil {
			return fmt.Errorf("decode replay payload: %w", err)
		}
		_, err := worker.IndexBlock(ctx, height)
		return err
	})

	server := admin.NewServer(cfg.Server.Port, coord, repo, worker, handler.Breakers(), log)

	return &App{
		cfg:     cfg,
		worker:  worker,
		server:  server,
		coord:   coord,
		repo:    repo,
		ids:     ids,
		handler: handler,
		redis:   redisClient,
		db:      db,
		log:     log,
	}, nil
}

// Start launches the admin server, background sweeps and the worker.
func (a *App) Start(ctx context.Context) error {
	if err := a.coord.SeedCursor(ctx, a.cfg.Indexer.StartCursor); err != nil {
		return fmt.Errorf("seed cursor: %w", err)
	}

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("Admin server failed", "error", err)
		}
	}()

	a.ids.StartCacheSweeps(ctx, time.Minute)
	go a.handler.DLQ().RunSweeper(ctx, time.Minute, 100, 5)
	go a.runMetricsUpdater(ctx)

	go func() {
		if err := a.worker.Start(ctx); err != nil {
			a.log.Error("Worker failed", "error", err)
		}
	}()
	return nil
}

// Stop drains the worker and shuts everything down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping indexer...")
	a.worker.Stop()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	return a.server.Stop(ctx)
}

// IndexBlock reprocesses one height. Administrative one-shot.
func (a *App) IndexBlock(ctx context.Context, height uint64) (map[string]int, error) {
	return a.worker.IndexBlock(ctx, height)
}

// Stats returns the aggregate counters.
func (a *App) Stats(ctx context.Context) (*domain.Stats, error) {
	return a.repo.GetStats(ctx)
}

// SetCursor applies the administrative monotonic cursor override.
func (a *App) SetCursor(ctx context.Context, value int64) (int64, error) {
	return a.coord.SetCursor(ctx, value)
}

func (a *App) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for service, status := range a.handler.Breakers().Snapshot() {
				open := 0.0
				if status == resilience.StatusOpen {
					open = 1.0
				}
				metrics.BreakerOpen.WithLabelValues(service).Set(open)
			}
			if depth, err := a.handler.DLQ().Depth(ctx); err == nil {
				metrics.DLQDepth.Set(float64(depth))
			}
		}
	}
}
