// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RosterURL is the base URL of the participation service.
	RosterURL string `koanf:"roster_url"`

	// RosterTimeoutMS bounds each roster call.
	RosterTimeoutMS int `koanf:"roster_timeout_ms"`

	// PageSize is the default listing page size.
	PageSize int `koanf:"page_size"`

	// MaxPageSize caps caller-requested page sizes.
	MaxPageSize int `koanf:"max_page_size"`

	// Collation selects the language tag for name ordering, e.g. "ar".
	Collation string `koanf:"collation"`

	// ApplyConcurrency bounds concurrent clear calls during a
	// reconciliation apply.
	ApplyConcurrency int `koanf:"apply_concurrency"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		RosterURL:        "http://localhost:8000",
		RosterTimeoutMS:  10_000,
		PageSize:         25,
		MaxPageSize:      200,
		Collation:        "ar",
		ApplyConcurrency: 4,
	}
}
