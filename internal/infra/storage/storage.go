package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
)

var (
	// ErrCursorNotFound is returned when no cursor has been seeded yet.
	ErrCursorNotFound = errors.New("cursor not found")

	// ErrNoRangeAvailable is returned when claim acquisition finds no free
	// range within its probe budget.
	ErrNoRangeAvailable = errors.New("no claimable range available")
)

// CoordinationStore is the single source of cross-worker truth: the cursor and
// the live batch claims. AcquireClaim must execute search-and-write as one
// atomic unit so concurrent claimants never receive overlapping ranges.
type CoordinationStore interface {
	// GetCursor returns the global high-water-mark.
	GetCursor(ctx context.Context) (int64, error)

	// AdvanceCursor sets the cursor to value if it is ahead of the current
	// one and returns the resulting cursor.
	AdvanceCursor(ctx context.Context, value int64) (int64, error)

	// ResetCursor unconditionally overwrites the cursor. Used by overshoot
	// recovery, which deliberately moves backward.
	ResetCursor(ctx context.Context, value int64) error

	// AcquireClaim finds the first free range of length size starting after
	// the cursor, probing at most maxProbes candidate ranges, and writes the
	// claim atomically. Returns ErrNoRangeAvailable when every probe overlaps
	// a live claim.
	AcquireClaim(ctx context.Context, size int64, workerID string, ttl time.Duration, maxProbes int) (*domain.BatchClaim, error)

	// ListClaims enumerates all live claims.
	ListClaims(ctx context.Context) ([]domain.BatchClaim, error)

	// ReleaseClaim deletes the claim held by workerID, if any.
	ReleaseClaim(ctx context.Context, workerID string) error

	// ClearClaims deletes every live claim.
	ClearClaims(ctx context.Context) error

	// PurgeClaimsOlderThan removes claims claimed before now-age and returns
	// how many were dropped.
	PurgeClaimsOlderThan(ctx context.Context, age time.Duration) (int, error)

	// MigrateClaimSchema rewrites claims written under the legacy field
	// layout into the current one. Safe to call on every connect.
	MigrateClaimSchema(ctx context.Context) error
}

// ResourceStore persists classification outcomes. Store operations are
// idempotent on inscription ID: the dedup check and the detail/index/counter
// writes form one atomic group per call.
type ResourceStore interface {
	// StoreOrdinals writes a classified resource. Returns false when the
	// inscription was already recorded.
	StoreOrdinals(ctx context.Context, res *domain.OrdinalsResource) (bool, error)

	// StoreNonOrdinals writes a non-DID resource. Returns false on duplicate.
	StoreNonOrdinals(ctx context.Context, res *domain.NonOrdinalsResource) (bool, error)

	// StoreError appends a per-inscription failure record.
	StoreError(ctx context.Context, e *domain.InscriptionError) error

	// Stats returns aggregate counters plus the cursor and live claim count.
	Stats(ctx context.Context) (*domain.Stats, error)

	// RecentErrors returns up to limit of the most recent error records.
	RecentErrors(ctx context.Context, limit int) ([]domain.InscriptionError, error)
}
