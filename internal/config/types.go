// Package config loads leapdash configuration.
//
// Values are layered with koanf: built-in defaults, then leapdash.yaml, then
// LEAPDASH_* environment variables, then explicitly set command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdash/pkg/adapter"
	"github.com/leapstack-labs/leapdash/pkg/figure"
)

// Config holds all configuration options.
type Config struct {
	// Engine is the adapter type (duckdb).
	Engine string `koanf:"engine"`
	// Database is the database file; empty or ":memory:" for in-memory.
	Database string `koanf:"database"`
	Schema   string `koanf:"schema"`
	// Params holds adapter-specific settings (DuckDB extensions, settings).
	Params map[string]any `koanf:"params"`

	StatePath string `koanf:"state_path"`
	Dashboard string `koanf:"dashboard"`
	Output    string `koanf:"output"`
	Verbose   bool   `koanf:"verbose"`

	Query QueryConfig `koanf:"query"`
	LLM   LLMConfig   `koanf:"llm"`
	Theme ThemeConfig `koanf:"theme"`

	// FileUsed is the config file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

// QueryConfig tunes widget query execution.
type QueryConfig struct {
	RawRowLimit int `koanf:"raw_row_limit"`
	Concurrency int `koanf:"concurrency"`
}

// LLMConfig configures the Vertex AI generator used by `ask`.
type LLMConfig struct {
	Project    string `koanf:"project"`
	Region     string `koanf:"region"`
	Model      string `koanf:"model"`
	MaxRetries int    `koanf:"max_retries"`
}

// ThemeConfig holds presentation settings.
type ThemeConfig struct {
	Palette []string `koanf:"palette"`
}

// AdapterConfig returns the adapter configuration for the SQL engine.
func (c *Config) AdapterConfig() adapter.Config {
	path := c.Database
	if path == ":memory:" {
		path = ""
	}
	return adapter.Config{
		Type:   strings.ToLower(c.Engine),
		Path:   path,
		Schema: c.Schema,
		Params: c.Params,
	}
}

// FigureTheme returns the theme applied to rendered figures.
func (c *Config) FigureTheme() figure.Theme {
	if len(c.Theme.Palette) == 0 {
		return figure.DefaultTheme()
	}
	return figure.Theme{Palette: append([]string(nil), c.Theme.Palette...)}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if !adapter.IsRegistered(strings.ToLower(c.Engine)) {
		return &adapter.UnknownAdapterError{
			Type:      c.Engine,
			Available: adapter.ListAdapters(),
		}
	}
	if c.Query.RawRowLimit < 0 {
		return fmt.Errorf("query.raw_row_limit must not be negative, got %d", c.Query.RawRowLimit)
	}
	if c.Query.Concurrency < 0 {
		return fmt.Errorf("query.concurrency must not be negative, got %d", c.Query.Concurrency)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative, got %d", c.LLM.MaxRetries)
	}
	switch c.Output {
	case OutputAuto, OutputText, OutputJSON, OutputMarkdown, OutputCSV:
	default:
		return fmt.Errorf("unknown output format %q (auto|text|json|markdown|csv)", c.Output)
	}
	return nil
}
