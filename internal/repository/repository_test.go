package repository

import (
	"context"
	"testing"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage/memory"
)

func TestRepository_StoreOrdinalsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New(), nil)

	res := &domain.OrdinalsResource{
		ResourceID:    "did:btco:1066/0",
		InscriptionID: "abc0i0",
		OrdinalsType:  domain.TypeDIDDocument,
	}
	if err := r.StoreOrdinalsResource(ctx, res); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	if res.IndexedAt.IsZero() {
		t.Fatal("IndexedAt should be stamped")
	}
	// Replays after a crash land on the same inscription ID; no error, no
	// second record.
	if err := r.StoreOrdinalsResource(ctx, res); err != nil {
		t.Fatalf("duplicate store should be a quiet no-op, got %v", err)
	}

	stats, err := r.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.OrdinalsTotal != 1 {
		t.Fatalf("ordinals total = %d after a duplicate write, want 1", stats.OrdinalsTotal)
	}
}

func TestRepository_RejectsMissingIdentity(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New(), nil)

	err := r.StoreOrdinalsResource(ctx, &domain.OrdinalsResource{InscriptionID: "abc0i0"})
	if err == nil {
		t.Fatal("ordinals resource without a resource ID should be rejected")
	}
	err = r.StoreOrdinalsResource(ctx, &domain.OrdinalsResource{ResourceID: "did:btco:1/0"})
	if err == nil {
		t.Fatal("ordinals resource without an inscription ID should be rejected")
	}
	err = r.StoreNonOrdinalsResource(ctx, &domain.NonOrdinalsResource{})
	if err == nil {
		t.Fatal("non-ordinals resource without an inscription ID should be rejected")
	}
}

func TestRepository_RecentErrorsAreCategorized(t *testing.T) {
	ctx := context.Background()
	r := New(memory.New(), nil)

	cases := []struct {
		msg  string
		want ErrorCategory
	}{
		{"api error during fetch: status 403: forbidden", CategoryPermission},
		{"inscription not found", CategoryNotFound},
		{"dial tcp: connection refused", CategoryNetwork},
		{"unexpected EOF", CategoryNetwork},
		{"something odd happened", CategoryOther},
	}
	for i, tc := range cases {
		err := r.StoreInscriptionError(ctx, &domain.InscriptionError{
			InscriptionID:     tc.msg,
			InscriptionNumber: int64(i),
			Error:             tc.msg,
		})
		if err != nil {
			t.Fatalf("StoreInscriptionError failed: %v", err)
		}
	}

	got, err := r.RecentErrors(ctx, 10)
	if err != nil {
		t.Fatalf("RecentErrors failed: %v", err)
	}
	if len(got) != len(cases) {
		t.Fatalf("got %d errors, want %d", len(got), len(cases))
	}
	// Newest first.
	for _, e := range got {
		var want ErrorCategory
		for _, tc := range cases {
			if tc.msg == e.Error {
				want = tc.want
			}
		}
		if e.Category != want {
			t.Errorf("error %q categorized as %s, want %s", e.Error, e.Category, want)
		}
	}
}
