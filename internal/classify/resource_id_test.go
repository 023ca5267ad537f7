package classify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// fakeProvider serves canned sat data and counts lookups.
type fakeProvider struct {
	sats     map[string]uint64   // inscription ID -> sat
	satLists map[uint64][]string // sat -> inscription IDs

	inscriptionCalls int
	satInfoCalls     int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GetInscription(ctx context.Context, id string) (*domain.Inscription, error) {
	f.inscriptionCalls++
	sat, ok := f.sats[id]
	if !ok {
		return nil, &resilience.APIError{Op: "getInscription", Status: 404}
	}
	return &domain.Inscription{ID: id, SatOrdinal: sat}, nil
}

func (f *fakeProvider) GetSatInfo(ctx context.Context, sat uint64) (*domain.SatInfo, error) {
	f.satInfoCalls++
	return &domain.SatInfo{Ordinal: sat, InscriptionIDs: f.satLists[sat]}, nil
}

func (f *fakeProvider) GetInscriptionByNumber(ctx context.Context, number int64) (*domain.Inscription, error) {
	return nil, &resilience.APIError{Op: "getInscriptionByNumber", Status: 404}
}

func (f *fakeProvider) GetMetadata(ctx context.Context, id string) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeProvider) GetBlockByHeight(ctx context.Context, height uint64) (*domain.Block, error) {
	return &domain.Block{Height: height}, nil
}

func (f *fakeProvider) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	return &domain.Block{Height: 0}, nil
}

func (f *fakeProvider) GetBlockInscriptions(ctx context.Context, height uint64) (*domain.BlockInscriptions, error) {
	return &domain.BlockInscriptions{Height: height}, nil
}

func newTestGenerator(p *fakeProvider, network domain.Network) *ResourceIDGenerator {
	h := resilience.NewHandler(nil, resilience.RetryConfig{MaxRetries: 0}, nil, nil)
	return NewResourceIDGenerator(p, h, network, time.Minute, nil)
}

func TestGenerate_KnownSatSkipsLookup(t *testing.T) {
	p := &fakeProvider{
		satLists: map[uint64][]string{1066: {"abc0i0", "defi0"}},
	}
	g := newTestGenerator(p, domain.NetworkMainnet)

	insc := &domain.Inscription{ID: "defi0", Number: 5, SatOrdinal: 1066}
	id, err := g.Generate(context.Background(), insc)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id != "did:btco:1066/1" {
		t.Fatalf("resource ID = %q, want did:btco:1066/1", id)
	}
	if p.inscriptionCalls != 0 {
		t.Error("a known sat ordinal must not trigger an inscription lookup")
	}
}

func TestGenerate_ResolvesAndCachesSat(t *testing.T) {
	p := &fakeProvider{
		sats:     map[string]uint64{"abc0i0": 1066},
		satLists: map[uint64][]string{1066: {"abc0i0"}},
	}
	g := newTestGenerator(p, domain.NetworkMainnet)
	ctx := context.Background()

	insc := &domain.Inscription{ID: "abc0i0", Number: 1}
	for i := 0; i < 3; i++ {
		id, err := g.Generate(ctx, insc)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if id != "did:btco:1066/0" {
			t.Fatalf("resource ID = %q, want did:btco:1066/0", id)
		}
	}
	if p.inscriptionCalls != 1 || p.satInfoCalls != 1 {
		t.Errorf("lookups = (%d, %d), want each resolved once and cached",
			p.inscriptionCalls, p.satInfoCalls)
	}
}

func TestGenerate_NetworkPrefixes(t *testing.T) {
	cases := []struct {
		network domain.Network
		want    string
	}{
		{domain.NetworkMainnet, "did:btco:1066/0"},
		{domain.NetworkSignet, "did:btco:sig:1066/0"},
		{domain.NetworkTestnet, "did:btco:test:1066/0"},
	}
	for _, tc := range cases {
		p := &fakeProvider{satLists: map[uint64][]string{1066: {"abc0i0"}}}
		g := newTestGenerator(p, tc.network)
		id, err := g.Generate(context.Background(), &domain.Inscription{ID: "abc0i0", SatOrdinal: 1066})
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if id != tc.want {
			t.Errorf("network %s: resource ID = %q, want %q", tc.network, id, tc.want)
		}
	}
}

func TestGenerate_MissingFromSatListFallsBackToZero(t *testing.T) {
	// The sat view can lag: the inscription is not yet in its own sat list.
	p := &fakeProvider{
		satLists: map[uint64][]string{1066: {"otheri0"}},
	}
	g := newTestGenerator(p, domain.NetworkMainnet)

	id, err := g.Generate(context.Background(), &domain.Inscription{ID: "newi0", SatOrdinal: 1066})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id != "did:btco:1066/0" {
		t.Fatalf("resource ID = %q, want index 0 fallback", id)
	}
}

func TestGenerate_SatLookupFailurePropagates(t *testing.T) {
	p := &fakeProvider{} // no sat known for any inscription
	g := newTestGenerator(p, domain.NetworkMainnet)

	_, err := g.Generate(context.Background(), &domain.Inscription{ID: "ghosti0"})
	if err == nil {
		t.Fatal("expected an error when the sat cannot be resolved")
	}
}
