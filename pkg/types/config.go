package types

import "time"

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for rate-limited API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PlannerConfig holds settings for the natural-language planner.
// Per prd004-intent-parsing R4.1-R4.3.
type PlannerConfig struct {
	AIConfig `yaml:",inline"`

	// Timeout bounds a single planner API call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DatasetConfig holds settings for the corpus store.
// Per prd002-aggregation R3.1-R3.3.
type DatasetConfig struct {
	// Path is the SQLite database file (e.g. "data/corpus.db").
	Path string `json:"path" yaml:"path"`

	// QueryTimeout bounds one grouped-count query (default 10s). The store
	// applies it per query; callers can only shorten it through ctx.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`
}

// ServerConfig holds settings for the HTTP API server.
// Per prd005-http-api R5.1-R5.2.
type ServerConfig struct {
	// Addr is the listen address (default "127.0.0.1:8000").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists origins granted CORS access, typically the
	// chart frontend's dev hosts.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// EngineConfig groups all chart-engine settings.
type EngineConfig struct {
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`
	Planner PlannerConfig `json:"planner" yaml:"planner"`
	Server  ServerConfig  `json:"server" yaml:"server"`
}
