// Package coordinator grants non-overlapping inscription ranges to workers
// and owns the global cursor's advancement policy.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
	"github.com/ordinalsplus/indexer-go/internal/metrics"
)

const (
	// maxClaimProbes bounds the free-range search. Claims are few (one per
	// worker) so a short probe walk always lands quickly in practice.
	maxClaimProbes = 10

	// stuckClaimAge is how old a claim must be before CompleteBatch reaps it.
	stuckClaimAge = time.Hour
)

// ErrNoBatchAvailable is returned when no free range exists within the probe
// budget.
var ErrNoBatchAvailable = errors.New("no batch available")

// Coordinator is the policy layer over the shared coordination store.
type Coordinator struct {
	store    storage.CoordinationStore
	claimTTL time.Duration
	log      *slog.Logger
}

// New creates a coordinator. claimTTL bounds how long a dead worker can block
// its range.
func New(store storage.CoordinationStore, claimTTL time.Duration, log *slog.Logger) *Coordinator {
	if claimTTL <= 0 {
		claimTTL = 15 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		store:    store,
		claimTTL: claimTTL,
		log:      log.With("component", "coordinator"),
	}
}

// SeedCursor initializes the cursor from config when the store has none.
func (c *Coordinator) SeedCursor(ctx context.Context, start int64) error {
	_, err := c.store.GetCursor(ctx)
	if errors.Is(err, storage.ErrCursorNotFound) {
		c.log.Info("Seeding cursor", "start", start)
		return c.store.ResetCursor(ctx, start)
	}
	return err
}

// ClaimNextBatch atomically grants the first free range of length size after
// the cursor, or ErrNoBatchAvailable.
func (c *Coordinator) ClaimNextBatch(ctx context.Context, size int64, workerID string) (*domain.BatchClaim, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", size)
	}

	claim, err := c.store.AcquireClaim(ctx, size, workerID, c.claimTTL, maxClaimProbes)
	if errors.Is(err, storage.ErrNoRangeAvailable) {
		return nil, ErrNoBatchAvailable
	}
	if err != nil {
		return nil, fmt.Errorf("claim next batch: %w", err)
	}

	c.log.Debug("Claimed batch", "worker", workerID, "start", claim.Start, "end", claim.End)
	return claim, nil
}

// CompleteBatch advances the cursor to endNumber (never past it, never
// backward) and opportunistically reaps claims stuck for over an hour.
func (c *Coordinator) CompleteBatch(ctx context.Context, endNumber int64) error {
	cursor, err := c.store.AdvanceCursor(ctx, endNumber)
	if err != nil {
		return fmt.Errorf("complete batch: %w", err)
	}
	metrics.CursorPosition.Set(float64(cursor))

	if purged, err := c.store.PurgeClaimsOlderThan(ctx, stuckClaimAge); err != nil {
		c.log.Warn("Failed to purge stuck claims", "error", err)
	} else if purged > 0 {
		c.log.Info("Purged stuck claims", "count", purged)
	}
	return nil
}

// SetCursor is the administrative cursor override. It clamps monotonically;
// moving backward is reserved for overshoot recovery.
func (c *Coordinator) SetCursor(ctx context.Context, value int64) (int64, error) {
	cursor, err := c.store.AdvanceCursor(ctx, value)
	if err != nil {
		return 0, fmt.Errorf("set cursor: %w", err)
	}
	metrics.CursorPosition.Set(float64(cursor))
	return cursor, nil
}

// ResetCursor overwrites the cursor unconditionally. Only the overshoot
// recovery path calls this.
func (c *Coordinator) ResetCursor(ctx context.Context, value int64) error {
	if err := c.store.ResetCursor(ctx, value); err != nil {
		return err
	}
	metrics.CursorPosition.Set(float64(value))
	c.log.Warn("Cursor reset", "value", value)
	return nil
}

// Cursor returns the current high-water-mark.
func (c *Coordinator) Cursor(ctx context.Context) (int64, error) {
	return c.store.GetCursor(ctx)
}

// ReleaseWorkerClaim releases the claim held by workerID.
func (c *Coordinator) ReleaseWorkerClaim(ctx context.Context, workerID string) error {
	return c.store.ReleaseClaim(ctx, workerID)
}

// ClearAllClaims releases every claim fleet-wide. Used after overshoot, when
// all outstanding ranges are known to be past the tip.
func (c *Coordinator) ClearAllClaims(ctx context.Context) error {
	c.log.Warn("Clearing all worker claims")
	return c.store.ClearClaims(ctx)
}

// ActiveClaims lists the live claims for the admin surface.
func (c *Coordinator) ActiveClaims(ctx context.Context) ([]domain.BatchClaim, error) {
	return c.store.ListClaims(ctx)
}
