package config

import "context"

// Loader is the interface for a format-specific program loader.
type Loader interface {
	// Load reads every program file found under paths and merges them into
	// one Program.
	Load(ctx context.Context, paths ...string) (*Program, error)
}
