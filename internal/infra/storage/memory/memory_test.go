package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage"
)

func TestStore_CursorLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetCursor(ctx); !errors.Is(err, storage.ErrCursorNotFound) {
		t.Fatalf("fresh store should report no cursor, got %v", err)
	}

	if cur, _ := s.AdvanceCursor(ctx, 100); cur != 100 {
		t.Fatalf("cursor = %d, want 100", cur)
	}
	// Going backward is a no-op.
	if cur, _ := s.AdvanceCursor(ctx, 50); cur != 100 {
		t.Fatalf("cursor moved backward to %d", cur)
	}
	if cur, _ := s.AdvanceCursor(ctx, 150); cur != 150 {
		t.Fatalf("cursor = %d, want 150", cur)
	}

	// Reset is the only way down, used for overshoot recovery.
	if err := s.ResetCursor(ctx, 10); err != nil {
		t.Fatalf("ResetCursor failed: %v", err)
	}
	if cur, _ := s.GetCursor(ctx); cur != 10 {
		t.Fatalf("cursor = %d after reset, want 10", cur)
	}
}

func TestStore_ClaimsNeverOverlap(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.ResetCursor(ctx, 0)

	var mu sync.Mutex
	var claims []domain.BatchClaim
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c, err := s.AcquireClaim(ctx, 100, fmt.Sprintf("worker-%d", n), time.Minute, 25)
			if err != nil {
				t.Errorf("AcquireClaim failed: %v", err)
				return
			}
			mu.Lock()
			claims = append(claims, *c)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(claims) != 20 {
		t.Fatalf("granted %d claims, want 20", len(claims))
	}
	for i := range claims {
		if claims[i].End-claims[i].Start != 99 {
			t.Errorf("claim %+v has wrong size", claims[i])
		}
		for j := i + 1; j < len(claims); j++ {
			if claims[i].Overlaps(claims[j].Start, claims[j].End) {
				t.Errorf("claims overlap: %+v and %+v", claims[i], claims[j])
			}
		}
	}
}

func TestStore_ExpiredClaimRangeIsReusable(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.ResetCursor(ctx, 0)

	first, err := s.AcquireClaim(ctx, 100, "worker-a", time.Millisecond, 10)
	if err != nil {
		t.Fatalf("AcquireClaim failed: %v", err)
	}

	// TTL is stored in whole seconds, so a sub-second TTL expires at once.
	time.Sleep(10 * time.Millisecond)

	second, err := s.AcquireClaim(ctx, 100, "worker-b", time.Minute, 10)
	if err != nil {
		t.Fatalf("AcquireClaim after expiry failed: %v", err)
	}
	if second.Start != first.Start || second.End != first.End {
		t.Fatalf("expired range should be regranted, got %+v, want %+v", second, first)
	}
}

func TestStore_ReleaseAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.ResetCursor(ctx, 0)

	if _, err := s.AcquireClaim(ctx, 10, "worker-a", time.Hour, 10); err != nil {
		t.Fatalf("AcquireClaim failed: %v", err)
	}
	if _, err := s.AcquireClaim(ctx, 10, "worker-b", time.Hour, 10); err != nil {
		t.Fatalf("AcquireClaim failed: %v", err)
	}

	if err := s.ReleaseClaim(ctx, "worker-a"); err != nil {
		t.Fatalf("ReleaseClaim failed: %v", err)
	}
	claims, _ := s.ListClaims(ctx)
	if len(claims) != 1 || claims[0].WorkerID != "worker-b" {
		t.Fatalf("claims after release = %+v", claims)
	}

	if purged, _ := s.PurgeClaimsOlderThan(ctx, 0); purged != 1 {
		t.Fatalf("purged %d claims, want 1", purged)
	}
	if err := s.ClearClaims(ctx); err != nil {
		t.Fatalf("ClearClaims failed: %v", err)
	}
	if claims, _ := s.ListClaims(ctx); len(claims) != 0 {
		t.Fatalf("claims after clear = %+v", claims)
	}
}

func TestStore_DedupAcrossCategories(t *testing.T) {
	ctx := context.Background()
	s := New()

	ord := &domain.OrdinalsResource{
		ResourceID:    "did:btco:1066/0",
		InscriptionID: "abc0i0",
		OrdinalsType:  domain.TypeDIDDocument,
		Metadata:      json.RawMessage(`{"id":"did:btco:1066"}`),
	}
	if created, _ := s.StoreOrdinals(ctx, ord); !created {
		t.Fatal("first write should create")
	}
	if created, _ := s.StoreOrdinals(ctx, ord); created {
		t.Fatal("second write should be a dedup no-op")
	}
	// The seen set spans both categories.
	if created, _ := s.StoreNonOrdinals(ctx, &domain.NonOrdinalsResource{InscriptionID: "abc0i0"}); created {
		t.Fatal("an ID stored as ordinals must not be restorable as non-ordinals")
	}

	stats, _ := s.Stats(ctx)
	if stats.OrdinalsTotal != 1 {
		t.Errorf("ordinals total = %d, want 1", stats.OrdinalsTotal)
	}
	if stats.OrdinalsBySubtype[string(domain.TypeDIDDocument)] != 1 {
		t.Errorf("subtype totals = %+v", stats.OrdinalsBySubtype)
	}
	if stats.NonOrdinalsTotal != 0 {
		t.Errorf("non-ordinals total = %d, want 0", stats.NonOrdinalsTotal)
	}
}

func TestStore_ErrorsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		err := s.StoreError(ctx, &domain.InscriptionError{
			InscriptionID: fmt.Sprintf("insc-%d", i),
			Error:         "boom",
			Timestamp:     time.Now(),
		})
		if err != nil {
			t.Fatalf("StoreError failed: %v", err)
		}
	}

	errs, _ := s.RecentErrors(ctx, 3)
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3", len(errs))
	}
	if errs[0].InscriptionID != "insc-4" {
		t.Errorf("first error = %s, want the newest", errs[0].InscriptionID)
	}

	stats, _ := s.Stats(ctx)
	if stats.ErrorsTotal != 5 {
		t.Errorf("errors total = %d, want 5", stats.ErrorsTotal)
	}
}
