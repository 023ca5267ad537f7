package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Network selects the DID method network prefix.
type Network string

const (
	NetworkMainnet Network = "mainnet"
	NetworkSignet  Network = "signet"
	NetworkTestnet Network = "testnet"
)

// DIDPrefix returns the did:btco prefix for this network.
func (n Network) DIDPrefix() string {
	switch n {
	case NetworkSignet:
		return "did:btco:sig"
	case NetworkTestnet:
		return "did:btco:test"
	default:
		return "did:btco"
	}
}

// ResourceID formats the canonical identifier for inscription index idx on
// satoshi sat: did:btco[:<net>]:<sat>/<idx>.
func (n Network) ResourceID(sat uint64, idx int) string {
	return fmt.Sprintf("%s:%d/%d", n.DIDPrefix(), sat, idx)
}

// OrdinalsType categorizes a classified inscription.
type OrdinalsType string

const (
	TypeDIDDocument          OrdinalsType = "did-document"
	TypeVerifiableCredential OrdinalsType = "verifiable-credential"
)

// OrdinalsResource is a classified DID document or verifiable credential.
type OrdinalsResource struct {
	ResourceID        string          `json:"resource_id"`
	InscriptionID     string          `json:"inscription_id"`
	InscriptionNumber int64           `json:"inscription_number"`
	OrdinalsType      OrdinalsType    `json:"ordinals_type"`
	ContentType       string          `json:"content_type"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	IndexedAt         time.Time       `json:"indexed_at"`
	BlockHeight       uint64          `json:"block_height,omitempty"`
	BlockTimestamp    int64           `json:"block_timestamp,omitempty"`
}

// NonOrdinalsResource records an inscription that carries no DID-linked data.
type NonOrdinalsResource struct {
	ResourceID        string    `json:"resource_id"`
	InscriptionID     string    `json:"inscription_id"`
	InscriptionNumber int64     `json:"inscription_number"`
	ContentType       string    `json:"content_type"`
	IndexedAt         time.Time `json:"indexed_at"`
}

// InscriptionError records a per-inscription processing failure.
type InscriptionError struct {
	InscriptionID     string    `json:"inscription_id"`
	InscriptionNumber int64     `json:"inscription_number"`
	Error             string    `json:"error"`
	Timestamp         time.Time `json:"timestamp"`
	WorkerID          string    `json:"worker_id"`
}

// Stats is the aggregate view exposed for observability. It never feeds
// control flow.
type Stats struct {
	OrdinalsTotal     int64            `json:"ordinals_total"`
	OrdinalsBySubtype map[string]int64 `json:"ordinals_by_subtype"`
	NonOrdinalsTotal  int64            `json:"non_ordinals_total"`
	ErrorsTotal       int64            `json:"errors_total"`
	Cursor            int64            `json:"cursor"`
	ActiveClaims      int              `json:"active_claims"`
}
