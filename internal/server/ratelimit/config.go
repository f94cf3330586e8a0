package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		MaxClients:      getEnvInt("RATE_LIMIT_MAX_CLIENTS", DefaultMaxClients),
		Whitelist:       parseIPList(getEnvString("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: DefaultEndpointConfigs(getEnvInt("RATE_LIMIT_NARRATIVE_PER_HOUR", 20)),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
// narrativePerHour bounds every endpoint that may call the language model.
func DefaultEndpointConfigs(narrativePerHour int) []EndpointConfig {
	burst := max(narrativePerHour/5, 1)
	return []EndpointConfig{
		// Tier 1: calls the language model or the mail service
		{Path: "/narrative", Method: "POST", Limit: narrativePerHour, Window: time.Hour, Burst: burst},
		{Path: "/sessions", Method: "POST", Limit: narrativePerHour, Window: time.Hour, Burst: burst},
		{Path: "/sessions/", Method: "POST", Limit: narrativePerHour, Window: time.Hour, Burst: burst},
		{Path: "/gift", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},

		// Tier 2: lead forwarding
		{Path: "/lead", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// Tier 3: reads - handled by default limit
		// Tier 4: health and metrics (unlimited) - handled by special case in matcher
	}
}

// getEnvString gets an environment variable as a string with a default value.
func getEnvString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	ips := strings.Split(list, ",")
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			result[ip] = true
		}
	}

	return result
}
