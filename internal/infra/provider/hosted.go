package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// HostedAPI talks to a hosted ordinals indexer (Hiro-compatible surface).
type HostedAPI struct {
	http *httpClient
}

// NewHostedAPI creates a hosted-API-backed provider.
func NewHostedAPI(baseURL, apiKey string, timeout time.Duration) *HostedAPI {
	return &HostedAPI{http: newHTTPClient("hosted-api", baseURL, apiKey, timeout)}
}

func (p *HostedAPI) Name() string { return "hosted-api" }

// hostedInscription is the hosted API's inscription shape.
type hostedInscription struct {
	ID          string          `json:"id"`
	Number      int64           `json:"number"`
	ContentType string          `json:"content_type"`
	SatOrdinal  uint64          `json:"sat_ordinal,string"`
	GenesisH    uint64          `json:"genesis_block_height"`
	Timestamp   int64           `json:"genesis_timestamp"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

func (i hostedInscription) toDomain() *domain.Inscription {
	return &domain.Inscription{
		ID:          i.ID,
		Number:      i.Number,
		ContentType: i.ContentType,
		SatOrdinal:  i.SatOrdinal,
		Metadata:    i.Metadata,
		BlockHeight: i.GenesisH,
		Timestamp:   i.Timestamp,
	}
}

func (p *HostedAPI) GetInscriptionByNumber(ctx context.Context, number int64) (*domain.Inscription, error) {
	var out hostedInscription
	if err := p.http.getJSON(ctx, "getInscriptionByNumber", fmt.Sprintf("/ordinals/v1/inscriptions/%d", number), &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (p *HostedAPI) GetInscription(ctx context.Context, id string) (*domain.Inscription, error) {
	var out hostedInscription
	if err := p.http.getJSON(ctx, "getInscription", "/ordinals/v1/inscriptions/"+id, &out); err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (p *HostedAPI) GetMetadata(ctx context.Context, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := p.http.getJSON(ctx, "getMetadata", "/ordinals/v1/inscriptions/"+id+"/metadata", &out); err != nil {
		if resilience.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (p *HostedAPI) GetSatInfo(ctx context.Context, sat uint64) (*domain.SatInfo, error) {
	var out struct {
		InscriptionIDs []string `json:"inscription_ids"`
	}
	if err := p.http.getJSON(ctx, "getSatInfo", fmt.Sprintf("/ordinals/v1/sats/%d", sat), &out); err != nil {
		return nil, err
	}
	return &domain.SatInfo{Ordinal: sat, InscriptionIDs: out.InscriptionIDs}, nil
}

func (p *HostedAPI) GetBlockByHeight(ctx context.Context, height uint64) (*domain.Block, error) {
	var out struct {
		Height    uint64 `json:"burn_block_height"`
		Hash      string `json:"burn_block_hash"`
		Timestamp int64  `json:"burn_block_time"`
	}
	if err := p.http.getJSON(ctx, "getBlockByHeight", fmt.Sprintf("/ordinals/v1/blocks/%d", height), &out); err != nil {
		return nil, err
	}
	return &domain.Block{Height: out.Height, Hash: out.Hash, Timestamp: out.Timestamp}, nil
}

func (p *HostedAPI) GetLatestBlock(ctx context.Context) (*domain.Block, error) {
	var out struct {
		BlockHeight uint64 `json:"block_height"`
	}
	if err := p.http.getJSON(ctx, "getLatestBlock", "/ordinals/v1/status", &out); err != nil {
		return nil, err
	}
	return p.GetBlockByHeight(ctx, out.BlockHeight)
}

// GetBlockInscriptions lists a block's inscriptions. The hosted API returns
// full records, so refs carry real numbers.
func (p *HostedAPI) GetBlockInscriptions(ctx context.Context, height uint64) (*domain.BlockInscriptions, error) {
	refs := make([]domain.InscriptionRef, 0)
	const pageSize = 60
	for offset := 0; ; offset += pageSize {
		var out struct {
			Total   int                 `json:"total"`
			Results []hostedInscription `json:"results"`
		}
		path := fmt.Sprintf("/ordinals/v1/inscriptions?genesis_block=%d&limit=%d&offset=%d", height, pageSize, offset)
		if err := p.http.getJSON(ctx, "getBlockInscriptions", path, &out); err != nil {
			return nil, err
		}
		for _, r := range out.Results {
			refs = append(refs, domain.InscriptionRef{ID: r.ID, Number: r.Number})
		}
		if offset+pageSize >= out.Total || len(out.Results) == 0 {
			break
		}
	}
	return &domain.BlockInscriptions{Height: height, Refs: refs}, nil
}

var _ Provider = (*HostedAPI)(nil)
