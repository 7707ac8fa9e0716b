package config

import (
	"fmt"
	"time"
)

// PileConfig tunes the money-bag pile.
type PileConfig struct {
	// LogBase of the income curve; 0 means natural log.
	LogBase       float64 `yaml:"log_base"`
	Multiplier    float64 `yaml:"multiplier"`
	MaxTarget     int     `yaml:"max_target"`
	ExitDuration  string  `yaml:"exit_duration"`
	EnterDuration string  `yaml:"enter_duration"`
	PoolLimit     int     `yaml:"pool_limit"`
	// Seed fixes the bag layout; 0 picks a random seed at startup.
	Seed uint64 `yaml:"seed"`
}

// GetExitDuration returns how long a bag takes to leave.
func (c PileConfig) GetExitDuration() time.Duration {
	return parseDuration(c.ExitDuration, time.Second)
}

// GetEnterDuration returns how long a bag takes to arrive.
func (c PileConfig) GetEnterDuration() time.Duration {
	return parseDuration(c.EnterDuration, 250*time.Millisecond)
}

// Validate checks the curve parameters.
func (c PileConfig) Validate() error {
	if c.LogBase != 0 && c.LogBase <= 1 {
		return fmt.Errorf("pile.log_base must be 0 (natural log) or greater than 1, got %v", c.LogBase)
	}
	if c.Multiplier < 0 {
		return fmt.Errorf("pile.multiplier must not be negative")
	}
	if c.MaxTarget < 0 || c.PoolLimit < 0 {
		return fmt.Errorf("pile.max_target and pile.pool_limit must not be negative")
	}
	for name, value := range map[string]string{
		"pile.exit_duration":  c.ExitDuration,
		"pile.enter_duration": c.EnterDuration,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
	}
	return nil
}
