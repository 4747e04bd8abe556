package server

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
	"github.com/zaidmukaddam/miniperplx-sub000/orchestrator"
	"github.com/zaidmukaddam/miniperplx-sub000/sandbox"
	"github.com/zaidmukaddam/miniperplx-sub000/toolset"
)

// Config holds initialization parameters for all subsystems. Each section
// delegates to that subsystem's config-driven constructor.
type Config struct {
	Addr         string                  `json:"addr,omitempty"`
	DefaultModel string                  `json:"default_model,omitempty"`
	DefaultGroup string                  `json:"default_group,omitempty"`
	Models       map[string]agent.Config `json:"models,omitempty"`
	Orchestrator orchestrator.Config     `json:"orchestrator"`
	Sandbox      sandbox.Config          `json:"sandbox"`
	Providers    toolset.Providers       `json:"providers"`
	TurnDedup    bool                    `json:"turn_dedup,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		DefaultGroup: "web",
		Orchestrator: orchestrator.DefaultConfig(),
		Sandbox:      sandbox.DefaultConfig(),
		Providers:    toolset.DefaultProviders(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Orchestrator.Merge(&source.Orchestrator)
	c.Sandbox.Merge(&source.Sandbox)
	c.Providers.Merge(&source.Providers)

	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.DefaultModel != "" {
		c.DefaultModel = source.DefaultModel
	}
	if source.DefaultGroup != "" {
		c.DefaultGroup = source.DefaultGroup
	}
	if len(source.Models) > 0 {
		c.Models = source.Models
	}
	if source.TurnDedup {
		c.TurnDedup = true
	}
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
