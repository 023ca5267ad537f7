package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// OrdNode talks to a self-hosted ord server's JSON API.
type OrdNode struct {
	http *httpClient
}

// NewOrdNode creates a full-node-backed provider.
func NewOrdNode(baseURL string, timeout time.Duration) *OrdNode {
	return &OrdNode{http: newHTTPClient("ord-node", baseURL, "", timeout)}
}

func (p *OrdNode) Name() string { return "ord-node" }

// ordInscription is ord's /inscription response shape.
type ordInscription struct {
	ID          string `json:"id"`
	Number      int64  `json:"number"`
	ContentType string `json:"content_type"`
	Sat         uint64 `json:"sat"`
	Height      uint64 `json:"height"`
	Timestamp   int64  `json:"timestamp"`
}

func (i ordInscription) toDomain() *domain.Inscription {
	return &domain.Inscription{
		ID:          i.ID,
		Number:      i.Number,
		ContentType: i.ContentType,
		SatOrdinal:  i.Sat,
		BlockHeight: i.Height,
		Timestamp:   i.Timestamp,
	}
}

// GetInscriptionByNumber resolves by ordinal number. ord accepts numbers on
// the same /inscription route it uses for IDs.
func (p *OrdNode) GetInscriptionByNumber(ctx context.Context, number int64) (*domain.Inscription, error) {
	var out ordInscription
	if err := p.http.getJSON(ctx, "getInscriptionByNumber", fmt.Sprintf("/inscription/%d", number), &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (p *OrdNode) GetInscription(ctx context.Context, id string) (*domain.Inscription, error) {
	var out ordInscription
	if err := p.http.getJSON(ctx, "getInscription", "/inscription/"+id, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

// GetMetadata returns the decoded metadata document from the recursive
// endpoint. ord answers 404 for inscriptions without metadata; that maps to
// nil, not an error.
func (p *OrdNode) GetMetadata(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := p.http.getJSON(ctx, "getMetadata", "/r/metadata/"+id, &out); err != nil {
		if resilience.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (p *OrdNode) GetSatInfo(ctx context.Context, sat uint64) (*domain.SatInfo, error) {
	var out struct {
		InscriptionIDs []string `json:"inscriptions"`
	}
	if err := p.http.getJSON(ctx, "getSatInfo", fmt.Sprintf("/sat/%d", sat), &out); err != nil {
		return nil, err
	}
	return &domain.SatInfo{Ordinal: sat, InscriptionIDs: out.InscriptionIDs}, nil
}

func (p *OrdNode) GetBlockByHeight(ctx context.Context, height uint64) (*domain.Block, error) {
	var out struct {
		Height    uint64 `json:"height"`
		Hash      string `json:"hash"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := p.http.getJSON(ctx, "getBlockByHeight", fmt.Sprintf("/r/blockinfo/%d", height), &out); err != nil {
		return nil, err
	}
	return &domain.Block{Height: out.Height, Hash: out.Hash, Timestamp: out.Timestamp}, nil
}

func (p *OrdNode) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	var height uint64
	if err := p.http.getJSON(ctx, "getLatestBlock", "/r/blockheight", &height); err != nil {
		return nil, err
	}
	return p.GetBlockByHeight(ctx, height)
}

// GetBlockInscriptions lists a block's inscriptions. ord returns bare ID
// strings, so the refs carry no numbers.
func (p *OrdNode) GetBlockInscriptions(ctx context.Context, height uint64) (*domain.BlockInscriptions, error) {
	refs := make([]domain.InscriptionRef, 0)
	for page := 0; ; page++ {
		var out struct {
			IDs  []string `json:"ids"`
			More bool     `json:"more"`
		}
		path := fmt.Sprintf("/inscriptions/block/%d/%d", height, page)
		if err := p.http.getJSON(ctx, "getBlockInscriptions", path, &out); err != nil {
			return nil, err
		}
		for _, id := range out.IDs {
			refs = append(refs, domain.InscriptionRef{ID: id, Number: -1})
		}
		if !out.More {
			break
		}
	}
	return &domain.BlockInscriptions{Height: height, Refs: refs}, nil
}

var _ Provider = (*OrdNode)(nil)
