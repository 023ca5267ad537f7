package indexer

import (
	"context"
	"fmt"
	"time"
)

// reversePaceEvery inserts a pacing sleep after this many blocks so a long
// backfill does not saturate the provider.
const reversePaceEvery = 10

// runReverseMode walks heights descending from StartBlock (tip when zero)
// down to EndBlock for backfills. One-shot: no cursor, no claims.
func (w *Worker) runReverseMode(ctx context.Context) error {
	start := w.cfg.StartBlock
	if start == 0 {
		latest, err := w.latestHeight(ctx)
		if err != nil {
			return fmt.Errorf("reverse mode: resolve tip: %w", err)
		}
		start = latest
	}
	end := w.cfg.EndBlock
	if end > start {
		return fmt.Errorf("reverse mode: end block %d above start %d", end, start)
	}

	w.log.Info("Reverse reindex starting", "start", start, "end", end)

	processed := 0
	for height := start; ; height-- {
		if w.stopping(ctx) {
			w.log.Info("Reverse reindex interrupted", "height", height)
			return nil
		}

		if err := w.processHeight(ctx, height); err != nil {
			// A bad block only costs its own inscriptions; keep walking.
			w.log.Error("Reverse reindex: block failed", "height", height, "error", err)
		}

		processed++
		if processed%reversePaceEvery == 0 {
			w.sleep(ctx, 2*time.Second)
		}

		if height == end || height == 0 {
			break
		}
	}

	w.log.Info("Reverse reindex finished", "blocks", processed)
	return nil
}
