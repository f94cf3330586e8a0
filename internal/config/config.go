// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the service configuration. It can be loaded from a JSON
// file and overridden by environment variables; missing values use defaults.
type Config struct {
	// Server
	Port    int  `json:"port,omitempty"`
	Verbose bool `json:"verbose,omitempty"` // Debug logging

	// Quiz
	QuestionBank  string `json:"question_bank,omitempty"`  // Path to a YAML question bank; empty uses the built-in one
	ScoringScheme string `json:"scoring_scheme,omitempty"` // scalar or vector

	// Narrative
	LLMProvider          string `json:"llm_provider,omitempty"` // openrouter or gemini
	LLMModel             string `json:"llm_model,omitempty"`
	OpenRouterAPIKey     string `json:"openrouter_api_key,omitempty"`
	GeminiAPIKey         string `json:"gemini_api_key,omitempty"`
	NarrativeURL         string `json:"narrative_url,omitempty"`  // Remote narrative endpoint; when set no provider is called directly
	NarrativeMode        string `json:"narrative_mode,omitempty"` // short or long
	ShortBudgetSeconds   int    `json:"short_budget_seconds,omitempty"`
	LongBudgetSeconds    int    `json:"long_budget_seconds,omitempty"`
	MaxNarrativeAttempts int    `json:"max_narrative_attempts,omitempty"`

	// Store
	StoreBackend  string `json:"store_backend,omitempty"` // memory, postgres, redis or sqlite
	DatabaseURL   string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	RedisURL      string `json:"redis_url,omitempty"`
	SQLitePath    string `json:"sqlite_path,omitempty"`
	StoreTTLHours int    `json:"store_ttl_hours,omitempty"`

	// Leads and gifts
	GoogleScriptURL string `json:"google_script_url,omitempty"`
	ResendAPIKey    string `json:"resend_api_key,omitempty"`
	GiftFrom        string `json:"gift_from,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 8080,
		ScoringScheme:        "scalar",
		LLMProvider:          "openrouter",
		NarrativeMode:        "long",
		ShortBudgetSeconds:   8,
		LongBudgetSeconds:    60,
		MaxNarrativeAttempts: 3,
		StoreBackend:         "memory",
		StoreTTLHours:        24 * 7,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables. Unset
// variables leave the zero value. Malformed integers are reported.
func FromEnv() (Config, error) {
	var cfg Config
	var err error

	cfg.QuestionBank = os.Getenv("QUESTION_BANK")
	cfg.ScoringScheme = os.Getenv("SCORING_SCHEME")
	cfg.LLMProvider = os.Getenv("LLM_PROVIDER")
	cfg.LLMModel = os.Getenv("LLM_MODEL")
	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.NarrativeURL = os.Getenv("NARRATIVE_URL")
	cfg.NarrativeMode = os.Getenv("NARRATIVE_MODE")
	cfg.StoreBackend = os.Getenv("STORE_BACKEND")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")
	cfg.GoogleScriptURL = os.Getenv("GOOGLE_SCRIPT_URL")
	cfg.ResendAPIKey = os.Getenv("RESEND_API_KEY")
	cfg.GiftFrom = os.Getenv("GIFT_FROM")

	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &cfg.Port},
		{"NARRATIVE_SHORT_BUDGET_SECONDS", &cfg.ShortBudgetSeconds},
		{"NARRATIVE_LONG_BUDGET_SECONDS", &cfg.LongBudgetSeconds},
		{"NARRATIVE_MAX_ATTEMPTS", &cfg.MaxNarrativeAttempts},
		{"STORE_TTL_HOURS", &cfg.StoreTTLHours},
	}
	for _, v := range ints {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		if *v.dst, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %v", v.key, err)
		}
	}

	return cfg, nil
}

// Load builds the effective configuration: environment variables win over
// the optional config file, which wins over Defaults.
func Load(path string) (Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.MergeWithDefaults(*file)
		cfg.Verbose = cfg.Verbose || file.Verbose
	}
	cfg = cfg.MergeWithDefaults(Defaults())
	return cfg, cfg.Validate()
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.ScoringScheme {
	case "", "scalar", "vector":
	default:
		return fmt.Errorf("config error: unknown scoring scheme %q", c.ScoringScheme)
	}

	switch c.NarrativeMode {
	case "", "short", "long":
	default:
		return fmt.Errorf("config error: 'narrative_mode' must be short or long")
	}

	if c.ShortBudgetSeconds < 0 || c.LongBudgetSeconds < 0 {
		return fmt.Errorf("config error: narrative budgets must be non-negative")
	}
	if c.MaxNarrativeAttempts < 0 {
		return fmt.Errorf("config error: 'max_narrative_attempts' must be non-negative")
	}

	switch c.StoreBackend {
	case "", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: postgres store requires 'database_url'")
		}
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("config error: redis store requires 'redis_url'")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("config error: sqlite store requires 'sqlite_path'")
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.StoreBackend)
	}

	// Validate file paths exist (if specified)
	if c.QuestionBank != "" {
		if _, err := os.Stat(c.QuestionBank); os.IsNotExist(err) {
			return fmt.Errorf("config error: question bank not found: %s", c.QuestionBank)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	strs := []struct{ dst, def *string }{
		{&result.QuestionBank, &defaults.QuestionBank},
		{&result.ScoringScheme, &defaults.ScoringScheme},
		{&result.LLMProvider, &defaults.LLMProvider},
		{&result.LLMModel, &defaults.LLMModel},
		{&result.OpenRouterAPIKey, &defaults.OpenRouterAPIKey},
		{&result.GeminiAPIKey, &defaults.GeminiAPIKey},
		{&result.NarrativeURL, &defaults.NarrativeURL},
		{&result.NarrativeMode, &defaults.NarrativeMode},
		{&result.StoreBackend, &defaults.StoreBackend},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.RedisURL, &defaults.RedisURL},
		{&result.SQLitePath, &defaults.SQLitePath},
		{&result.GoogleScriptURL, &defaults.GoogleScriptURL},
		{&result.ResendAPIKey, &defaults.ResendAPIKey},
		{&result.GiftFrom, &defaults.GiftFrom},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = *s.def
		}
	}

	// Int fields: use default if zero
	ints := []struct{ dst, def *int }{
		{&result.Port, &defaults.Port},
		{&result.ShortBudgetSeconds, &defaults.ShortBudgetSeconds},
		{&result.LongBudgetSeconds, &defaults.LongBudgetSeconds},
		{&result.MaxNarrativeAttempts, &defaults.MaxNarrativeAttempts},
		{&result.StoreTTLHours, &defaults.StoreTTLHours},
	}
	for _, i := range ints {
		if *i.dst == 0 {
			*i.dst = *i.def
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ShortBudget returns the short-mode narrative budget.
func (c *Config) ShortBudget() time.Duration {
	return time.Duration(c.ShortBudgetSeconds) * time.Second
}

// LongBudget returns the long-mode narrative budget.
func (c *Config) LongBudget() time.Duration {
	return time.Duration(c.LongBudgetSeconds) * time.Second
}

// StoreTTL returns how long session state is kept.
func (c *Config) StoreTTL() time.Duration {
	return time.Duration(c.StoreTTLHours) * time.Hour
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenRouterAPIKey
}
