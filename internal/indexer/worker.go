// Package indexer drives inscription traversal: batch catch-up against the
// shared cursor, live chain-tail following, or backward reindexing.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/classify"
	"github.com/ordinalsplus/indexer-go/internal/coordinator"
	"github.com/ordinalsplus/indexer-go/internal/core/config"
	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	"github.com/ordinalsplus/indexer-go/internal/repository"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// Config holds worker behavior settings.
type Config struct {
	Mode             config.Mode
	WorkerID         string
	BatchSize        int64
	Concurrency      int
	PollInterval     time.Duration
	Lookback         uint64
	StartBlock       uint64
	EndBlock         uint64
	AdvanceOnFailure bool
}

// Worker runs one traversal mode with bounded-concurrency item processing.
type Worker struct {
	cfg      Config
	coord    *coordinator.Coordinator
	repo     *repository.Repository
	provider provider.Provider
	handler  *resilience.Handler
	ids      *classify.ResourceIDGenerator
	log      *slog.Logger

	running atomic.Bool
	stop    chan struct{}
}

// New creates a worker.
func New(
	cfg Config,
	coord *coordinator.Coordinator,
	repo *repository.Repository,
	p provider.Provider,
	handler *resilience.Handler,
	ids *classify.ResourceIDGenerator,
	log *slog.Logger,
) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		cfg:      cfg,
		coord:    coord,
		repo:     repo,
		provider: p,
		handler:  handler,
		ids:      ids,
		log:      log.With("component", "indexer", "worker", cfg.WorkerID, "mode", cfg.Mode),
		stop:     make(chan struct{}),
	}
}

// Start runs the configured traversal mode until Stop or context end. On
// exit the worker releases its claim; in-flight chunk work finishes first.
func (w *Worker) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return fmt.Errorf("worker already running")
	}
	defer w.running.Store(false)

	w.log.Info("Starting indexer worker")
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.coord.ReleaseWorkerClaim(releaseCtx, w.cfg.WorkerID); err != nil {
			w.log.Warn("Failed to release claim on shutdown", "error", err)
		}
	}()

	switch w.cfg.Mode {
	case config.ModeTail:
		return w.runTailMode(ctx)
	case config.ModeReverse:
		return w.runReverseMode(ctx)
	default:
		return w.runBatchMode(ctx)
	}
}

// Stop sets the local stop flag. In-flight work drains before Start returns.
func (w *Worker) Stop() {
	if w.running.Load() {
		select {
		case <-w.stop:
		default:
			close(w.stop)
		}
	}
}

// stopping reports whether shutdown was requested.
func (w *Worker) stopping(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.stop:
		return true
	default:
		return false
	}
}

// sleep waits for d unless shutdown interrupts it.
func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-w.stop:
	case <-time.After(d):
	}
}

// fetchInscriptionByNumber resolves one inscription through the resilience
// stack. Returns (nil, nil) when the number does not exist yet.
func (w *Worker) fetchInscriptionByNumber(ctx context.Context, number int64) (*domain.Inscription, error) {
	insc, err := resilience.Execute(ctx, w.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getInscriptionByNumber", number,
		func(ctx context.Context) (*domain.Inscription, error) {
			return w.provider.GetInscriptionByNumber(ctx, number)
		})
	if resilience.IsNotFound(err) {
		return nil, nil
	}
	return insc, err
}
