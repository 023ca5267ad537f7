package config

import (
	"time"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
	redisclient "github.com/ordinalsplus/indexer-go/internal/infra/redis"
	"github.com/ordinalsplus/indexer-go/internal/infra/storage/postgres"
)

// Mode selects the worker's traversal strategy.
type Mode string

const (
	ModeBatch   Mode = "batch"
	ModeTail    Mode = "tail"
	ModeReverse Mode = "reverse"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Provider ProviderConfig     `yaml:"provider"`
	Indexer  IndexerConfig      `yaml:"indexer"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ProviderConfig holds settings for the inscription provider.
type ProviderConfig struct {
	Type    string        `yaml:"type"` // "ord" (full node) or "hosted"
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// IndexerConfig holds traversal and processing settings.
type IndexerConfig struct {
	Mode         Mode           `yaml:"mode"`
	Network      domain.Network `yaml:"network"`
	WorkerID     string         `yaml:"worker_id"`
	BatchSize    int64          `yaml:"batch_size"`
	Concurrency  int            `yaml:"concurrency"`
	PollInterval time.Duration  `yaml:"poll_interval"`
	ClaimTTL     time.Duration  `yaml:"claim_ttl"`
	CacheTTL     time.Duration  `yaml:"cache_ttl"`
	Lookback     uint64         `yaml:"lookback"`     // tail mode catch-up window
	StartBlock   uint64         `yaml:"start_block"`  // reverse mode, 0 = tip
	EndBlock     uint64         `yaml:"end_block"`    // reverse mode
	StartCursor  int64          `yaml:"start_cursor"` // seed when the store has none

	// AdvanceOnFailure controls whether a high-failure batch without an
	// identifiable missing boundary still advances the cursor to batch end.
	AdvanceOnFailure *bool `yaml:"advance_on_failure"`
}

// AdvancePastFailures reports the high-failure policy, defaulting to true.
func (c IndexerConfig) AdvancePastFailures() bool {
	if c.AdvanceOnFailure == nil {
		return true
	}
	return *c.AdvanceOnFailure
}
