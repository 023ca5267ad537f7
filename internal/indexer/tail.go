package indexer

import (
	"context"
	"fmt"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// runTailMode follows the chain tip by block height. It primes a bounded
// catch-up window behind the tip, processes heights sequentially, and polls
// for new blocks once caught up. No claiming: this mode is for one dedicated
// tailing worker.
func (w *Worker) runTailMode(ctx context.Context) error {
	latest, err := w.latestHeight(ctx)
	if err != nil {
		return fmt.Errorf("tail mode: prime latest height: %w", err)
	}

	lookback := w.cfg.Lookback
	if lookback == 0 {
		lookback = 10
	}
	next := uint64(1)
	if latest >= lookback {
		next = latest - lookback + 1
	}
	w.log.Info("Tail mode primed", "latest", latest, "next", next)

	for {
		if w.stopping(ctx) {
			w.log.Info("Tail worker stopping")
			return nil
		}

		if next > latest {
			w.sleep(ctx, w.cfg.PollInterval)
			refreshed, err := w.latestHeight(ctx)
			if err != nil {
				w.log.Warn("Tail mode: tip poll failed", "error", err)
				continue
			}
			latest = refreshed
			continue
		}

		if err := w.processHeight(ctx, next); err != nil {
			w.log.Error("Tail mode: block failed, will retry", "height", next, "error", err)
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}
		next++
	}
}

func (w *Worker) latestHeight(ctx context.Context) (uint64, error) {
	block, err := resilience.Execute(ctx, w.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getLatestBlock", nil,
		func(ctx context.Context) (*domain.Block, error) {
			return w.provider.GetLatestBlock(ctx)
		})
	if err != nil {
		return 0, err
	}
	return block.Height, nil
}

// processHeight fetches one block's inscription listing and processes it.
func (w *Worker) processHeight(ctx context.Context, height uint64) error {
	block, err := resilience.Execute(ctx, w.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true, DeadLetter: true},
		"getBlockInscriptions", height,
		func(ctx context.Context) (*domain.BlockInscriptions, error) {
			return w.provider.GetBlockInscriptions(ctx, height)
		})
	if err != nil {
		return err
	}

	counters := w.processBlock(ctx, block)
	w.log.Info("Block processed", "height", height,
		"inscriptions", counters.Inscriptions, "ordinals", counters.Ordinals,
		"failures", counters.Failures, "duplicates", counters.Duplicates)
	return nil
}

// IndexBlock reprocesses a single height with verbose tracing. Administrative
// one-shot; never touches the cursor.
func (w *Worker) IndexBlock(ctx context.Context, height uint64) (map[string]int, error) {
	w.log.Info("Administrative block reindex requested", "height", height)

	block, err := resilience.Execute(ctx, w.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getBlockInscriptions", height,
		func(ctx context.Context) (*domain.BlockInscriptions, error) {
			return w.provider.GetBlockInscriptions(ctx, height)
		})
	if err != nil {
		return nil, fmt.Errorf("index block %d: %w", height, err)
	}
	w.log.Info("Block listing resolved", "height", height, "inscriptions", len(block.Refs))

	counters := w.processBlock(ctx, block)
	w.log.Info("Block reindex finished", "height", height,
		"inscriptions", counters.Inscriptions,
		"ordinals", counters.Ordinals, "non_ordinals", counters.NonOrdinals,
		"failures", counters.Failures, "duplicates", counters.Duplicates)

	return map[string]int{
		"inscriptions": counters.Inscriptions,
		"ordinals":     counters.Ordinals,
		"non_ordinals": counters.NonOrdinals,
		"failures":     counters.Failures,
		"duplicates":   counters.Duplicates,
	}, nil
}
