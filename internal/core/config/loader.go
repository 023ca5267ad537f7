package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
)

// Load reads configuration from a YAML file. Environment variables in the
// file body are expanded before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = "ord"
	}
	if cfg.Provider.Timeout == 0 {
		cfg.Provider.Timeout = 10 * time.Second
	}

	idx := &cfg.Indexer
	if idx.Mode == "" {
		idx.Mode = ModeBatch
	}
	if idx.Network == "" {
		idx.Network = domain.NetworkMainnet
	}
	if idx.WorkerID == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "worker"
		}
		idx.WorkerID = host + "-" + uuid.NewString()[:8]
	}
	if idx.BatchSize == 0 {
		idx.BatchSize = 100
	}
	if idx.Concurrency == 0 {
		idx.Concurrency = 5
	}
	if idx.PollInterval == 0 {
		idx.PollInterval = 10 * time.Second
	}
	if idx.ClaimTTL == 0 {
		idx.ClaimTTL = 15 * time.Minute
	}
	if idx.CacheTTL == 0 {
		idx.CacheTTL = 5 * time.Minute
	}
	if idx.Lookback == 0 {
		idx.Lookback = 10
	}
}
