package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for themis-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, provider API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// AI model and provider configuration
	AI AIConfig `yaml:"ai"`

	// Query execution guardrails
	Query QueryConfig `yaml:"query"`

	// Market analytics configuration
	Market MarketConfig `yaml:"market"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	// URL is a complete PostgreSQL DSN. When set it takes precedence over
	// the discrete host/port/user fields below. This is the same variable
	// the ingestion pipeline uses to reach the analyst database.
	URL string `yaml:"-" env:"THEMIS_ANALYST_DB"` // Secret - not in YAML

	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"themis"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"themis"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MinConnections int32  `yaml:"min_connections" env:"PGMIN_CONNECTIONS" env-default:"2"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// RunMigrations applies pending schema migrations at startup.
	RunMigrations  bool   `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"false"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// AIConfig holds model selection and provider credentials for the analyst.
// Model identifiers carry an optional provider prefix ("openrouter/",
// "ollama/", "anthropic/") that selects which endpoint and key are used.
type AIConfig struct {
	PrimaryModel  string `yaml:"primary_model" env:"ANALYST_PRIMARY_MODEL" env-default:"openrouter/qwen/qwen3-coder-30b-a3b-instruct"`
	FallbackModel string `yaml:"fallback_model" env:"ANALYST_FALLBACK_MODEL" env-default:"openrouter/anthropic/claude-sonnet-4.5"`

	// AutoFallback retries a failed generation once on the fallback model.
	AutoFallback bool `yaml:"auto_fallback" env:"ANALYST_AUTO_FALLBACK" env-default:"true"`

	Temperature              float32 `yaml:"temperature" env:"ANALYST_TEMPERATURE" env-default:"0.1"`
	MaxTokens                int     `yaml:"max_tokens" env:"ANALYST_MAX_TOKENS" env-default:"2000"`
	GenerationTimeoutSeconds int     `yaml:"generation_timeout_seconds" env:"ANALYST_GENERATION_TIMEOUT_SECONDS" env-default:"30"`

	// LiteLLMProxyBaseURL is the endpoint used for "ollama/" prefixed models.
	LiteLLMProxyBaseURL string `yaml:"litellm_proxy_base_url" env:"LITELLM_PROXY_BASE_URL" env-default:""`

	OpenRouterAPIKey   string `yaml:"-" env:"OPENROUTER_API_KEY"`    // Secret - not in YAML
	LiteLLMProxyAPIKey string `yaml:"-" env:"LITELLM_PROXY_API_KEY"` // Secret - not in YAML
	AnthropicAPIKey    string `yaml:"-" env:"ANTHROPIC_API_KEY"`     // Secret - not in YAML
	OpenAIAPIKey       string `yaml:"-" env:"OPENAI_API_KEY"`        // Secret - not in YAML
}

// GenerationTimeout returns the per-request deadline for SQL generation
// and answer synthesis calls.
func (c *AIConfig) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}

// QueryConfig holds row-count and runtime ceilings applied to every query.
type QueryConfig struct {
	// DefaultRowLimit is applied when the caller does not request a cap.
	DefaultRowLimit int `yaml:"default_row_limit" env:"ANALYST_DEFAULT_ROW_LIMIT" env-default:"10000"`
	// AdvancedRowLimit is the cap offered to expert-mode callers.
	AdvancedRowLimit int `yaml:"advanced_row_limit" env:"ANALYST_ADVANCED_ROW_LIMIT" env-default:"50000"`
	// HardRowLimit is the absolute ceiling. Requests above it are clamped.
	HardRowLimit int `yaml:"hard_row_limit" env:"ANALYST_HARD_ROW_LIMIT" env-default:"100000"`

	StatementTimeoutMS  int `yaml:"statement_timeout_ms" env:"ANALYST_STATEMENT_TIMEOUT_MS" env-default:"30000"`
	SynthesisSampleRows int `yaml:"synthesis_sample_rows" env:"ANALYST_SYNTHESIS_SAMPLE_ROWS" env-default:"50"`
}

// EffectiveRowLimit resolves a caller-requested row cap against the
// configured ceilings. Zero or negative means "use the default".
func (c *QueryConfig) EffectiveRowLimit(requested int) int {
	if requested <= 0 {
		return c.DefaultRowLimit
	}
	if requested > c.HardRowLimit {
		return c.HardRowLimit
	}
	return requested
}

// StatementTimeout returns the server-side statement_timeout duration.
func (c *QueryConfig) StatementTimeout() time.Duration {
	return time.Duration(c.StatementTimeoutMS) * time.Millisecond
}

// MarketConfig holds defaults for the trending and mention-timeline views.
type MarketConfig struct {
	TrendingWindowDays int `yaml:"trending_window_days" env:"MARKET_TRENDING_WINDOW_DAYS" env-default:"7"`
	TrendingLimit      int `yaml:"trending_limit" env:"MARKET_TRENDING_LIMIT" env-default:"10"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds" env:"MARKET_CACHE_TTL_SECONDS" env-default:"300"`
}

// CacheTTL returns how long trending results are served from cache.
func (c *MarketConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. Secrets (PGPASSWORD, provider
// API keys, THEMIS_ANALYST_DB) must come from environment variables
// (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	// Load config from YAML file with environment variable overrides
	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	// Validate TLS configuration
	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Validate row limit ordering
	if err := cfg.validateQueryLimits(); err != nil {
		return nil, fmt.Errorf("invalid query configuration: %w", err)
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// validateQueryLimits ensures the row-limit ladder is ordered.
// default <= advanced <= hard must hold or clamping becomes ambiguous.
func (c *Config) validateQueryLimits() error {
	q := c.Query
	if q.DefaultRowLimit <= 0 {
		return fmt.Errorf("default_row_limit must be positive, got %d", q.DefaultRowLimit)
	}
	if q.AdvancedRowLimit < q.DefaultRowLimit {
		return fmt.Errorf("advanced_row_limit (%d) must be >= default_row_limit (%d)", q.AdvancedRowLimit, q.DefaultRowLimit)
	}
	if q.HardRowLimit < q.AdvancedRowLimit {
		return fmt.Errorf("hard_row_limit (%d) must be >= advanced_row_limit (%d)", q.HardRowLimit, q.AdvancedRowLimit)
	}
	if q.StatementTimeoutMS <= 0 {
		return fmt.Errorf("statement_timeout_ms must be positive, got %d", q.StatementTimeoutMS)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
// A full THEMIS_ANALYST_DB DSN wins over the discrete fields. A localhost
// host is rewritten to host.docker.internal when the engine itself runs in
// a container so it can still reach a database on the host machine.
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
