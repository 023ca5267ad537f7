package indexer

import (
	"context"
	"errors"

	"github.com/ordinalsplus/indexer-go/internal/coordinator"
	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
)

// highFailureRate is the threshold above which a batch is treated as mostly
// failed rather than noisy.
const highFailureRate = 0.8

// runBatchMode claims ranges from the coordinator and applies the asymmetric
// cursor-advancement policy: never mark not-yet-mined inscriptions done,
// while still progressing through transient noise.
func (w *Worker) runBatchMode(ctx context.Context) error {
	for {
		if w.stopping(ctx) {
			w.log.Info("Batch worker stopping")
			return nil
		}

		claim, err := w.coord.ClaimNextBatch(ctx, w.cfg.BatchSize, w.cfg.WorkerID)
		if errors.Is(err, coordinator.ErrNoBatchAvailable) {
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}
		if err != nil {
			w.log.Error("Failed to claim batch", "error", err)
			w.sleep(ctx, w.cfg.PollInterval)
			continue
		}

		result := w.processBatchParallel(ctx, claim.Start, claim.End)
		if w.stopping(ctx) {
			// Interrupted mid-batch: leave the cursor alone, free the range.
			_ = w.coord.ReleaseWorkerClaim(ctx, w.cfg.WorkerID)
			return nil
		}

		w.log.Info("Batch processed",
			"start", claim.Start, "end", claim.End,
			"ordinals", result.ordinalsFound, "non_ordinals", result.nonOrdinalsFound,
			"failures", result.failures, "missing", result.missing)

		w.applyBatchPolicy(ctx, claim, result)
	}
}

// applyBatchPolicy decides how far the cursor moves after a batch. The rule
// is asymmetric: confirmed work always advances, unconfirmed data never does.
func (w *Worker) applyBatchPolicy(ctx context.Context, claim *domain.BatchClaim, result batchResult) {
	switch {
	case result.missing == result.total:
		// Overshoot: the whole range is past the tip.
		metrics.BatchesCompleted.WithLabelValues("overshoot").Inc()
		w.handleOvershoot(ctx)
		w.sleep(ctx, w.cfg.PollInterval)

	case result.failureRate() > highFailureRate && result.firstMissing >= 0:
		// Advance exactly to the last confirmed number, never past
		// unconfirmed data.
		metrics.BatchesCompleted.WithLabelValues("partial").Inc()
		w.completeAndRelease(ctx, result.firstMissing-1)
		w.sleep(ctx, w.cfg.PollInterval)

	case result.failureRate() > highFailureRate:
		metrics.BatchesCompleted.WithLabelValues("high-failure").Inc()
		if w.cfg.AdvanceOnFailure {
			// Errors treated as noise: advance anyway. Explicit policy,
			// see advance_on_failure.
			w.completeAndRelease(ctx, claim.End)
		} else {
			w.log.Warn("High failure rate, leaving cursor for retry",
				"start", claim.Start, "end", claim.End)
			_ = w.coord.ReleaseWorkerClaim(ctx, w.cfg.WorkerID)
		}
		w.sleep(ctx, w.cfg.PollInterval)

	default:
		metrics.BatchesCompleted.WithLabelValues("complete").Inc()
		w.completeAndRelease(ctx, claim.End)
	}
}

func (w *Worker) completeAndRelease(ctx context.Context, endNumber int64) {
	if err := w.coord.CompleteBatch(ctx, endNumber); err != nil {
		w.log.Error("Failed to complete batch", "end", endNumber, "error", err)
	}
	if err := w.coord.ReleaseWorkerClaim(ctx, w.cfg.WorkerID); err != nil {
		w.log.Warn("Failed to release claim", "error", err)
	}
}

// handleOvershoot releases the fleet's claims, recomputes the true tip and
// resets the cursor next to it. Every outstanding claim is past the tip, so
// clearing them all is safe.
func (w *Worker) handleOvershoot(ctx context.Context) {
	w.log.Warn("Batch overshot the chain tip, recovering")

	if err := w.coord.ReleaseWorkerClaim(ctx, w.cfg.WorkerID); err != nil {
		w.log.Warn("Failed to release own claim", "error", err)
	}
	if err := w.coord.ClearAllClaims(ctx); err != nil {
		w.log.Error("Failed to clear fleet claims", "error", err)
		return
	}

	tip, err := w.findHighestInscription(ctx)
	if err != nil {
		w.log.Error("Failed to locate chain tip", "error", err)
		return
	}
	if err := w.coord.ResetCursor(ctx, tip); err != nil {
		w.log.Error("Failed to reset cursor", "tip", tip, "error", err)
		return
	}
	w.log.Info("Cursor reset to chain tip", "tip", tip)
}
