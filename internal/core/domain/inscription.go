package domain

import "encoding/json"

// Inscription is the raw on-chain item as returned by a provider.
type Inscription struct {
	ID          string          `json:"id"`
	Number      int64           `json:"number"`
	ContentType string          `json:"content_type"`
	SatOrdinal  uint64          `json:"sat_ordinal"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	BlockHeight uint64          `json:"block_height,omitempty"`
	Timestamp   int64           `json:"timestamp,omitempty"`
}

// InscriptionRef identifies an inscription inside a block listing. Number is
// negative when the provider only returned the ID.
type InscriptionRef struct {
	ID     string
	Number int64
}

// BlockInscriptions is a block's inscription list resolved into one shape at
// ingestion, regardless of whether the provider returned bare ID strings or
// {id, number} records.
type BlockInscriptions struct {
	Height uint64
	Refs   []InscriptionRef
}

// Block is a minimal view of a chain block.
type Block struct {
	Height    uint64 `json:"height"`
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
}

// SatInfo describes a satoshi and the ordered inscriptions carried on it.
type SatInfo struct {
	Ordinal        uint64   `json:"ordinal"`
	InscriptionIDs []string `json:"inscription_ids"`
}
