package app

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultFPS = 30
	MaxFPS     = 240
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProgramPath string // .hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// FPS is the number of ticks per second.
	FPS int
	// Duration stops the program after this much run time. Zero runs until
	// the program is idle or the context is cancelled.
	Duration time.Duration
	// Virtual runs on a simulated clock as fast as possible. It requires a
	// Duration.
	Virtual bool
	// Seed makes rand() reproducible when set.
	Seed *uint64

	PublishURL       string
	PublishNamespace string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProgramPath == "" {
		return nil, errors.New("ProgramPath is a required configuration field and cannot be empty")
	}
	if cfg.FPS == 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.FPS < 1 || cfg.FPS > MaxFPS {
		return nil, fmt.Errorf("FPS must be between 1 and %d, got %d", MaxFPS, cfg.FPS)
	}
	if cfg.Duration < 0 {
		return nil, fmt.Errorf("Duration must not be negative, got %s", cfg.Duration)
	}
	if cfg.Virtual && cfg.Duration == 0 {
		return nil, errors.New("a virtual-clock run needs a Duration")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("HealthcheckPort out of range: %d", cfg.HealthcheckPort)
	}
	if cfg.PublishNamespace != "" && cfg.PublishURL == "" {
		return nil, errors.New("PublishNamespace requires PublishURL")
	}
	return &cfg, nil
}

// frame is the virtual time between ticks.
func (c *Config) frame() time.Duration {
	return time.Second / time.Duration(c.FPS)
}
