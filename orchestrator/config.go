package orchestrator

import "time"

const (
	defaultStepBudget = 8
	defaultWallClock  = 90 * time.Second
)

// Config bounds and seeds the turn loop.
type Config struct {
	StepBudget   int    `json:"step_budget,omitempty"`    // max tool-bearing turns
	WallClockSec int    `json:"wall_clock_sec,omitempty"` // whole-loop time budget
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// DefaultConfig returns the default loop budgets.
func DefaultConfig() Config {
	return Config{
		StepBudget:   defaultStepBudget,
		WallClockSec: int(defaultWallClock / time.Second),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.StepBudget > 0 {
		c.StepBudget = source.StepBudget
	}
	if source.WallClockSec > 0 {
		c.WallClockSec = source.WallClockSec
	}
	if source.SystemPrompt != "" {
		c.SystemPrompt = source.SystemPrompt
	}
}

// WallClock returns the configured wall-clock budget.
func (c *Config) WallClock() time.Duration {
	if c.WallClockSec <= 0 {
		return defaultWallClock
	}
	return time.Duration(c.WallClockSec) * time.Second
}
