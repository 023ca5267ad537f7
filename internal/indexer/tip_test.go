package indexer

import (
	"context"
	"testing"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

func TestFindHighestInscription_FastPath(t *testing.T) {
	p := &stubProvider{
		latest: &domain.Block{Height: 840002},
		blocks: map[uint64]*domain.BlockInscriptions{
			// The newest block is empty; the scan keeps walking back.
			840001: {Height: 840001, Refs: []domain.InscriptionRef{
				{ID: "ai0", Number: 70000},
				{ID: "bi0", Number: 70001},
				{ID: "ci0", Number: 69999},
			}},
		},
	}
	f := newTestFixture(t, p, Config{})

	tip, err := f.worker.findHighestInscription(context.Background())
	if err != nil {
		t.Fatalf("findHighestInscription failed: %v", err)
	}
	if tip != 70001 {
		t.Fatalf("tip = %d, want 70001", tip)
	}
}

func TestFindHighestInscription_FastPathResolvesIDOnlyListing(t *testing.T) {
	p := &stubProvider{
		latest: &domain.Block{Height: 840000},
		blocks: map[uint64]*domain.BlockInscriptions{
			// An ord-node listing carries no numbers.
			840000: {Height: 840000, Refs: []domain.InscriptionRef{
				{ID: "insc42i0", Number: -1},
			}},
		},
	}
	p.addInscription(42, "")

	f := newTestFixture(t, p, Config{})
	tip, err := f.worker.findHighestInscription(context.Background())
	if err != nil {
		t.Fatalf("findHighestInscription failed: %v", err)
	}
	if tip != 42 {
		t.Fatalf("tip = %d, want 42 resolved through the listing's last ID", tip)
	}
}

func TestFindHighestInscription_SearchFallback(t *testing.T) {
	const realTip = 777
	p := &stubProvider{
		latestErr: &resilience.APIError{Op: "getLatestBlock", Status: 503},
	}
	for n := int64(1); n <= realTip; n++ {
		p.addInscription(n, "")
	}

	f := newTestFixture(t, p, Config{})
	ctx := context.Background()
	_ = f.coord.SeedCursor(ctx, 100) // cursor well behind the tip

	tip, err := f.worker.findHighestInscription(ctx)
	if err != nil {
		t.Fatalf("findHighestInscription failed: %v", err)
	}
	if tip != realTip {
		t.Fatalf("tip = %d, want %d", tip, realTip)
	}
}

func TestFindHighestInscription_SearchWhenCursorOvershot(t *testing.T) {
	p := &stubProvider{
		latestErr: &resilience.APIError{Op: "getLatestBlock", Status: 503},
	}
	p.addInscription(1, "")
	p.addInscription(2, "")
	p.addInscription(3, "")

	f := newTestFixture(t, p, Config{})
	ctx := context.Background()
	_ = f.coord.SeedCursor(ctx, 9999) // the cursor itself points past the tip

	tip, err := f.worker.findHighestInscription(ctx)
	if err != nil {
		t.Fatalf("findHighestInscription failed: %v", err)
	}
	if tip != 3 {
		t.Fatalf("tip = %d, want 3 after searching from genesis", tip)
	}
}
