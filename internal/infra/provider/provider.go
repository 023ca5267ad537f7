// Package provider abstracts the upstream inscription source. Two
// realizations exist: a self-hosted ord full node and a hosted indexer API.
// The core is agnostic to which one is configured.
package provider

import (
	"context"
	"encoding/json"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
)

// ServiceName is the circuit breaker key shared by all provider calls.
const ServiceName = "blockchain-provider"

// Provider is the read interface over the inscription ledger.
type Provider interface {
	// Name identifies the realization in logs and metrics.
	Name() string

	// GetInscriptionByNumber resolves an inscription by its ordinal number.
	// A 404 means the number is not mined yet.
	GetInscriptionByNumber(ctx context.Context, number int64) (*domain.Inscription, error)

	// GetInscription resolves an inscription by ID.
	GetInscription(ctx context.Context, id string) (*domain.Inscription, error)

	// GetMetadata returns the inscription's metadata document, already
	// decoded to JSON by the upstream. Nil when the inscription has none.
	GetMetadata(ctx context.Context, id string) (json.RawMessage, error)

	// GetSatInfo returns the satoshi's ordered inscription ID list.
	GetSatInfo(ctx context.Context, sat uint64) (*domain.SatInfo, error)

	// GetBlockByHeight returns block header data.
	GetBlockByHeight(ctx context.Context, height uint64) (*domain.Block, error)

	// GetLatestBlock returns the current chain tip.
	GetLatestBlock(ctx context.Context) (*domain.Block, error)

	// GetBlockInscriptions lists the inscriptions created in a block,
	// normalized into one shape at ingestion regardless of whether the
	// upstream returns ID strings or {id, number} records.
	GetBlockInscriptions(ctx context.Context, height uint64) (*domain.BlockInscriptions, error)
}
