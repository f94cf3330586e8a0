// Package llm provides centralized LLM configuration and client abstractions.
// Narrative generation talks to whichever provider the configuration selects.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short-form narratives with a tight time budget
	TierLite ModelTier = "lite"
	// TierStandard is for the full narrative
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for a heavier model when one is configured
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenRouter is the OpenRouter OpenAI-compatible gateway
	ProviderOpenRouter Provider = "openrouter"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Default OpenRouter settings.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "z-ai/glm-4.6"
	DefaultTemperature       = 0.7
	DefaultMaxTokens         = 2000
)

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string

	// BaseURL overrides the provider endpoint (OpenRouter only).
	BaseURL string
	// Referer and Title are sent as HTTP-Referer and X-Title (OpenRouter only).
	Referer string
	Title   string
	// Timeout bounds a single HTTP round-trip. Callers usually impose a
	// tighter deadline through the context.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration (OpenRouter)
func DefaultConfig() *Config {
	return DefaultOpenRouterConfig()
}

// DefaultOpenRouterConfig returns the default OpenRouter configuration
func DefaultOpenRouterConfig() *Config {
	return &Config{
		Provider: ProviderOpenRouter,
		Models: map[ModelTier]string{
			TierLite:     DefaultOpenRouterModel,
			TierStandard: DefaultOpenRouterModel,
		},
		BaseURL: DefaultOpenRouterBaseURL,
		Title:   "AI Readiness Quiz",
		Timeout: 120 * time.Second,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout: 120 * time.Second,
	}
}

// ConfigFor returns the default configuration of a provider. Unknown
// providers get the OpenRouter defaults.
func ConfigFor(provider Provider) *Config {
	if provider == ProviderGemini {
		return DefaultGeminiConfig()
	}
	return DefaultOpenRouterConfig()
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}
