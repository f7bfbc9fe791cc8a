package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Config holds the knobs of a validator process.
type Config struct {
	LogLevel string `json:"log_level"`

	// Verification
	ProofCacheSize    int `json:"proof_cache_size"`
	VerifyParallelism int `json:"verify_parallelism"`

	// Spend circuit
	SpendDepth  int    `json:"spend_depth"`
	SolidityOut string `json:"solidity_out"`
}

func Default() *Config {
	return &Config{
		LogLevel:          "info",
		ProofCacheSize:    1024,
		VerifyParallelism: 4,
		SpendDepth:        5,
		SolidityOut:       "contracts/PlonkVerifier.sol",
	}
}

// Load reads path, or writes the default configuration there when the
// file does not exist yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg := Default()
		if err := Save(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return cfg, cfg.Validate()
}

func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.ProofCacheSize <= 0 {
		return fmt.Errorf("proof_cache_size must be positive")
	}
	if c.VerifyParallelism <= 0 {
		return fmt.Errorf("verify_parallelism must be positive")
	}
	if c.SpendDepth <= 0 || c.SpendDepth > 32 {
		return fmt.Errorf("spend_depth must be in [1, 32]")
	}
	if c.SolidityOut == "" {
		return fmt.Errorf("solidity_out must be set")
	}
	return nil
}
