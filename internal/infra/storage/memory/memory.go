package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
)

// Store is an in-memory coordination and resource store. It exists for tests
// and single-worker development; cross-process safety comes only from the
// Redis implementation.
type Store struct {
	mu sync.Mutex

	cursor    int64
	hasCursor bool
	claims    map[string]domain.BatchClaim

	seen        map[string]struct{}
	ordinals    map[string]domain.OrdinalsResource
	nonOrdinals map[string]domain.NonOrdinalsResource
	errs        []domain.InscriptionError

	ordinalsTotal    int64
	subtypeTotals    map[string]int64
	nonOrdinalsTotal int64
	errorsTotal      int64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		claims:        make(map[string]domain.BatchClaim),
		seen:          make(map[string]struct{}),
		ordinals:      make(map[string]domain.OrdinalsResource),
		nonOrdinals:   make(map[string]domain.NonOrdinalsResource),
		subtypeTotals: make(map[string]int64),
	}
}

func (s *Store) GetCursor(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCursor {
		return 0, storage.ErrCursorNotFound
	}
	return s.cursor, nil
}

func (s *Store) AdvanceCursor(ctx context.Context, value int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasCursor || value > s.cursor {
		s.cursor = value
		s.hasCursor = true
	}
	return s.cursor, nil
}

func (s *Store) ResetCursor(ctx context.Context, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = value
	s.hasCursor = true
	return nil
}

// AcquireClaim performs the bounded probe search under the store lock, which
// makes search-and-write atomic the same way the Redis script does.
func (s *Store) AcquireClaim(ctx context.Context, size int64, workerID string, ttl time.Duration, maxProbes int) (*domain.BatchClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, c := range s.claims {
		if c.ExpiresAt().Before(now) {
			delete(s.claims, id)
		}
	}

	start := s.cursor + 1
	for probe := 0; probe < maxProbes; probe++ {
		end := start + size - 1
		conflict := int64(-1)
		for _, c := range s.claims {
			if c.Overlaps(start, end) && c.End > conflict {
				conflict = c.End
			}
		}
		if conflict < 0 {
			claim := domain.BatchClaim{
				Start:     start,
				End:       end,
				WorkerID:  workerID,
				ClaimedAt: now,
				TTL:       int64(ttl.Seconds()),
			}
			s.claims[workerID] = claim
			return &claim, nil
		}
		start = conflict + 1
	}
	return nil, storage.ErrNoRangeAvailable
}

func (s *Store) ListClaims(ctx context.Context) ([]domain.BatchClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BatchClaim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) ReleaseClaim(ctx context.Context, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, workerID)
	return nil
}

func (s *Store) ClearClaims(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims = make(map[string]domain.BatchClaim)
	return nil
}

func (s *Store) PurgeClaimsOlderThan(ctx context.Context, age time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-age)
	purged := 0
	for id, c := range s.claims {
		if c.ClaimedAt.Before(cutoff) {
			delete(s.claims, id)
			purged++
		}
	}
	return purged, nil
}

func (s *Store) MigrateClaimSchema(ctx context.Context) error {
	return nil // nothing legacy in memory
}

func (s *Store) StoreOrdinals(ctx context.Context, res *domain.OrdinalsResource) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[res.InscriptionID]; dup {
		return false, nil
	}
	s.seen[res.InscriptionID] = struct{}{}
	s.ordinals[res.InscriptionID] = *res
	s.ordinalsTotal++
	s.subtypeTotals[string(res.OrdinalsType)]++
	return true, nil
}

func (s *Store) StoreNonOrdinals(ctx context.Context, res *domain.NonOrdinalsResource) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[res.InscriptionID]; dup {
		return false, nil
	}
	s.seen[res.InscriptionID] = struct{}{}
	s.nonOrdinals[res.InscriptionID] = *res
	s.nonOrdinalsTotal++
	return true, nil
}

func (s *Store) StoreError(ctx context.Context, e *domain.InscriptionError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append([]domain.InscriptionError{*e}, s.errs...)
	if len(s.errs) > 1000 {
		s.errs = s.errs[:1000]
	}
	s.errorsTotal++
	return nil
}

func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtypes := make(map[string]int64, len(s.subtypeTotals))
	for k, v := range s.subtypeTotals {
		subtypes[k] = v
	}
	return &domain.Stats{
		OrdinalsTotal:     s.ordinalsTotal,
		OrdinalsBySubtype: subtypes,
		NonOrdinalsTotal:  s.nonOrdinalsTotal,
		ErrorsTotal:       s.errorsTotal,
		Cursor:            s.cursor,
		ActiveClaims:      len(s.claims),
	}, nil
}

func (s *Store) RecentErrors(ctx context.Context, limit int) ([]domain.InscriptionError, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.errs) {
		limit = len(s.errs)
	}
	out := make([]domain.InscriptionError, limit)
	copy(out, s.errs[:limit])
	return out, nil
}

var _ storage.CoordinationStore = (*Store)(nil)
var _ storage.ResourceStore = (*Store)(nil)
