package indexer

import (
	"context"
	"fmt"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// tipScanBlocks is how many recent blocks the fast path inspects before
// falling back to searching over inscription numbers.
const tipScanBlocks = 5

// findHighestInscription returns the highest inscription number that exists.
// Fast path: walk a few recent blocks and take the largest number seen.
// Fallback: exponential growth to bracket the tip, then binary search.
func (w *Worker) findHighestInscription(ctx context.Context) (int64, error) {
	if tip, ok := w.tipFromRecentBlocks(ctx); ok {
		return tip, nil
	}
	return w.tipBySearch(ctx)
}

func (w *Worker) tipFromRecentBlocks(ctx context.Context) (int64, bool) {
	latest, err := resilience.Execute(ctx, w.handler,
		resilience.Policy{Service: provider.ServiceName, Retry: true},
		"getLatestBlock", nil,
		func(ctx context.Context) (*domain.Block, error) {
			return w.provider.GetLatestBlock(ctx)
		})
	if err != nil {
		w.log.Warn("Tip fast path: latest block lookup failed", "error", err)
		return 0, false
	}

	for height := latest.Height; height > 0 && height > latest.Height-tipScanBlocks; height-- {
		block, err := w.provider.GetBlockInscriptions(ctx, height)
		if err != nil || len(block.Refs) == 0 {
			continue
		}

		best := int64(-1)
		for _, ref := range block.Refs {
			if ref.Number > best {
				best = ref.Number
			}
		}
		if best < 0 {
			// ID-only listing: resolve one record to learn the numbers.
			last := block.Refs[len(block.Refs)-1]
			insc, err := w.provider.GetInscription(ctx, last.ID)
			if err != nil {
				continue
			}
			best = insc.Number
		}
		if best >= 0 {
			w.log.Debug("Tip found via recent blocks", "height", height, "tip", best)
			return best, true
		}
	}
	return 0, false
}

// tipBySearch brackets the tip by doubling from the cursor, then binary
// searches the bracket. exists(n) asks the provider for number n.
func (w *Worker) tipBySearch(ctx context.Context) (int64, error) {
	exists := func(n int64) (bool, error) {
		insc, err := w.fetchInscriptionByNumber(ctx, n)
		if err != nil {
			return false, err
		}
		return insc != nil, nil
	}

	low, err := w.coord.Cursor(ctx)
	if err != nil || low < 1 {
		low = 1
	}
	if ok, err := exists(low); err != nil {
		return 0, fmt.Errorf("tip search probe %d: %w", low, err)
	} else if !ok {
		low = 0 // cursor itself overshot; search from genesis
	}

	high := low*2 + 1
	for {
		ok, err := exists(high)
		if err != nil {
			return 0, fmt.Errorf("tip search probe %d: %w", high, err)
		}
		if !ok {
			break
		}
		low = high
		high *= 2
	}

	for low+1 < high {
		mid := low + (high-low)/2
		ok, err := exists(mid)
		if err != nil {
			return 0, fmt.Errorf("tip search probe %d: %w", mid, err)
		}
		if ok {
			low = mid
		} else {
			high = mid
		}
	}
	return low, nil
}
