package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// PlatformConfig defines the upstream API location for one platform
type PlatformConfig struct {
	Name    string `toml:"Name"`
	BaseURL string `toml:"BaseURL"`
}

// WarmupConfig defines one resource whose cache entry is refreshed periodically
type WarmupConfig struct {
	CompanyID  string   `toml:"CompanyID"`
	Platform   string   `toml:"Platform"`
	ResourceID string   `toml:"ResourceID"`
	Groups     []string `toml:"Groups"`
}

// Config maps to the config.toml file for the metrics service
type Config struct {
	ListenAddress           string           `toml:"ListenAddress"`
	CredentialTTLInSeconds  uint32           `toml:"CredentialTTLInSeconds"`
	FetchTimeoutInSeconds   uint32           `toml:"FetchTimeoutInSeconds"`
	WarmupIntervalInSeconds uint32           `toml:"WarmupIntervalInSeconds"`
	Platforms               []PlatformConfig `toml:"Platforms"`
	Warmup                  []WarmupConfig   `toml:"Warmup"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
