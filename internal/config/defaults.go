package config

// Output formats.
const (
	OutputAuto     = "auto" // TTY=text, otherwise markdown
	OutputText     = "text"
	OutputJSON     = "json"
	OutputMarkdown = "markdown"
	OutputCSV      = "csv"
)

// Default configuration values.
const (
	DefaultEngine      = "duckdb"
	DefaultStateFile   = ".leapdash/state.db"
	DefaultDashboard   = "default"
	DefaultOutput      = OutputAuto
	DefaultRawRowLimit = 1000
	DefaultConcurrency = 4
	DefaultLLMRegion   = "us-central1"
	DefaultLLMModel    = "gemini-1.5-flash"
	DefaultMaxRetries  = 2
)

// defaults returns the lowest-precedence layer.
func defaults() map[string]any {
	return map[string]any{
		"engine":              DefaultEngine,
		"state_path":          DefaultStateFile,
		"dashboard":           DefaultDashboard,
		"output":              DefaultOutput,
		"verbose":             false,
		"query.raw_row_limit": DefaultRawRowLimit,
		"query.concurrency":   DefaultConcurrency,
		"llm.region":          DefaultLLMRegion,
		"llm.model":           DefaultLLMModel,
		"llm.max_retries":     DefaultMaxRetries,
	}
}

// Default returns a configuration holding only the defaults.
func Default() *Config {
	return &Config{
		Engine:    DefaultEngine,
		StatePath: DefaultStateFile,
		Dashboard: DefaultDashboard,
		Output:    DefaultOutput,
		Query: QueryConfig{
			RawRowLimit: DefaultRawRowLimit,
			Concurrency: DefaultConcurrency,
		},
		LLM: LLMConfig{
			Region:     DefaultLLMRegion,
			Model:      DefaultLLMModel,
			MaxRetries: DefaultMaxRetries,
		},
	}
}
