package indexer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/classify"
	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/provider"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// chunkPause smooths the provider call rate between concurrent chunks.
const chunkPause = 250 * time.Millisecond

// batchResult accumulates one batch's outcome. firstMissing is the lowest
// inscription number the provider could not resolve, or -1.
type batchResult struct {
	total            int
	ordinalsFound    int
	nonOrdinalsFound int
	failures         int
	missing          int
	firstMissing     int64
}

// failureRate counts both errors and unresolvable numbers against the batch.
func (r batchResult) failureRate() float64 {
	if r.total == 0 {
		return 0
	}
	return float64(r.failures+r.missing) / float64(r.total)
}

// processBatchParallel works through [start, end] in chunks of the configured
// concurrency. Items within a chunk run concurrently; a short pause separates
// chunks. A per-item failure never aborts the batch.
func (w *Worker) processBatchParallel(ctx context.Context, start, end int64) batchResult {
	result := batchResult{total: int(end - start + 1), firstMissing: -1}
	var mu sync.Mutex

	for chunkStart := start; chunkStart <= end; chunkStart += int64(w.cfg.Concurrency) {
		chunkEnd := chunkStart + int64(w.cfg.Concurrency) - 1
		if chunkEnd > end {
			chunkEnd = end
		}

		var wg sync.WaitGroup
		for n := chunkStart; n <= chunkEnd; n++ {
			wg.Add(1)
			go func(number int64) {
				defer wg.Done()
				outcome := w.processNumber(ctx, number)

				mu.Lock()
				defer mu.Unlock()
				switch outcome {
				case outcomeOrdinals:
					result.ordinalsFound++
				case outcomeNonOrdinals:
					result.nonOrdinalsFound++
				case outcomeMissing:
					result.missing++
					if result.firstMissing < 0 || number < result.firstMissing {
						result.firstMissing = number
					}
				case outcomeFailure:
					result.failures++
				}
			}(n)
		}
		wg.Wait()

		if w.stopping(ctx) {
			break
		}
		if chunkEnd < end {
			w.sleep(ctx, chunkPause)
		}
	}
	return result
}

type itemOutcome int

const (
	outcomeOrdinals itemOutcome = iota
	outcomeNonOrdinals
	outcomeMissing
	outcomeFailure
)

// processNumber fetches, classifies and stores one inscription number.
// "Missing" (the provider cannot resolve the number) is distinct from an
// error after resolution; only the former feeds firstMissing.
func (w *Worker) processNumber(ctx context.Context, number int64) itemOutcome {
	insc, err := w.fetchInscriptionByNumber(ctx, number)
	if err != nil {
		w.recordError(ctx, "", number, err)
		return outcomeFailure
	}
	if insc == nil {
		metrics.InscriptionsProcessed.WithLabelValues("missing").Inc()
		return outcomeMissing
	}

	c, err := w.classifyAndStore(ctx, insc)
	if err != nil {
		w.recordError(ctx, insc.ID, number, err)
		return outcomeFailure
	}
	if c.IsOrdinalsPlus() {
		return outcomeOrdinals
	}
	return outcomeNonOrdinals
}

// classifyAndStore resolves metadata when the provider did not inline it,
// classifies once, and writes the matching resource record.
func (w *Worker) classifyAndStore(ctx context.Context, insc *domain.Inscription) (classify.Classification, error) {
	if len(insc.Metadata) == 0 {
		meta, err := resilience.Execute(ctx, w.handler,
			resilience.Policy{Service: provider.ServiceName, Retry: true},
			"getMetadata", insc.ID,
			func(ctx context.Context) (json.RawMessage, error) {
				return w.provider.GetMetadata(ctx, insc.ID)
			})
		if err != nil {
			return classify.Classification{}, err
		}
		insc.Metadata = meta
	}

	resourceID, err := w.ids.Generate(ctx, insc)
	if err != nil {
		return classify.Classification{}, err
	}

	c := classify.Classify(insc.Metadata)
	if c.IsOrdinalsPlus() {
		return c, w.repo.StoreOrdinalsResource(ctx, &domain.OrdinalsResource{
			ResourceID:        resourceID,
			InscriptionID:     insc.ID,
			InscriptionNumber: insc.Number,
			OrdinalsType:      c.OrdinalsType(),
			ContentType:       insc.ContentType,
			Metadata:          insc.Metadata,
			BlockHeight:       insc.BlockHeight,
			BlockTimestamp:    insc.Timestamp,
		})
	}
	return c, w.repo.StoreNonOrdinalsResource(ctx, &domain.NonOrdinalsResource{
		ResourceID:        resourceID,
		InscriptionID:     insc.ID,
		InscriptionNumber: insc.Number,
		ContentType:       insc.ContentType,
	})
}

// blockCounters are per-block diagnostics. Block processing never advances
// the cursor.
type blockCounters struct {
	Inscriptions int
	Ordinals     int
	NonOrdinals  int
	Failures     int
	Duplicates   int
}

// processBlock resolves, classifies and stores every inscription in a block
// listing. The listing was already normalized at ingestion; refs without
// numbers are resolved by ID.
func (w *Worker) processBlock(ctx context.Context, block *domain.BlockInscriptions) blockCounters {
	var counters blockCounters
	seen := make(map[string]struct{}, len(block.Refs))

	for _, ref := range block.Refs {
		if w.stopping(ctx) {
			break
		}
		if _, dup := seen[ref.ID]; dup {
			counters.Duplicates++
			continue
		}
		seen[ref.ID] = struct{}{}
		counters.Inscriptions++

		insc, err := resilience.Execute(ctx, w.handler,
			resilience.Policy{Service: provider.ServiceName, Retry: true},
			"getInscription", ref.ID,
			func(ctx context.Context) (*domain.Inscription, error) {
				return w.provider.GetInscription(ctx, ref.ID)
			})
		if err != nil {
			counters.Failures++
			w.recordError(ctx, ref.ID, ref.Number, err)
			continue
		}

		c, err := w.classifyAndStore(ctx, insc)
		if err != nil {
			counters.Failures++
			w.recordError(ctx, insc.ID, insc.Number, err)
			continue
		}
		if c.IsOrdinalsPlus() {
			counters.Ordinals++
		} else {
			counters.NonOrdinals++
		}
	}
	return counters
}

// recordError stores a per-inscription failure; storage errors here only log.
func (w *Worker) recordError(ctx context.Context, inscriptionID string, number int64, cause error) {
	err := w.repo.StoreInscriptionError(ctx, &domain.InscriptionError{
		InscriptionID:     inscriptionID,
		InscriptionNumber: number,
		Error:             cause.Error(),
		WorkerID:          w.cfg.WorkerID,
	})
	if err != nil {
		w.log.Error("Failed to store inscription error", "number", number, "error", err)
	}
}
