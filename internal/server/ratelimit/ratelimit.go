// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// TokenBucket represents a token bucket rate limiter.
// Tokens refill at a steady rate up to the bucket capacity.
type TokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// newTokenBucket creates a full bucket with the given capacity and refill rate.
func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// refill adds the tokens earned since the last refill. Callers hold mu.
func (tb *TokenBucket) refill(now time.Time) {
	earned := now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	tb.tokens = min(float64(tb.capacity), tb.tokens+earned)
	tb.lastRefill = now
}

// take consumes a token if one is available and reports the bucket state
// after the attempt.
func (tb *TokenBucket) take() (allowed bool, remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refill(now)

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		allowed = true
	}

	remaining = int(tb.tokens)
	resetTime = now
	if missing := float64(tb.capacity) - tb.tokens; missing > 0 {
		resetTime = now.Add(time.Duration(missing / tb.refillRate * float64(time.Second)))
	}
	return allowed, remaining, resetTime
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	MaxClients      int // bucket count bound; least recently created buckets are dropped first
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultMaxClients bounds the number of live buckets.
const DefaultMaxClients = 100000

// Limiter manages rate limiting for multiple clients using token buckets.
// Buckets live in a bounded cache and expire after the longest configured
// window, by which time an idle bucket would have refilled anyway.
type Limiter struct {
	config  *Config
	mu      sync.Mutex
	buckets *expirable.LRU[string, *TokenBucket]
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			Whitelist:     make(map[string]bool),
			Blacklist:     make(map[string]bool),
		}
	}
	size := config.MaxClients
	if size <= 0 {
		size = DefaultMaxClients
	}

	return &Limiter{
		config:  config,
		buckets: expirable.NewLRU[string, *TokenBucket](size, nil, longestWindow(config)),
	}
}

func longestWindow(config *Config) time.Duration {
	ttl := config.DefaultWindow
	for _, ec := range config.EndpointConfigs {
		if ec.Window > ttl {
			ttl = ec.Window
		}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return ttl
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
// Returns true if allowed, false if rate limited, along with rate limit information.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{Allowed: false}
	}

	endpointConfig := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if endpointConfig == nil {
		endpointConfig = &EndpointConfig{
			Path:   endpoint,
			Method: method,
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}

	// Unlimited endpoint (e.g., health check)
	if endpointConfig.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	// Prefix-matched endpoints share one bucket per client, so that every
	// session id counts against the same limit.
	bucket := l.getBucket(clientID+":"+method+":"+endpointConfig.Path, endpointConfig)

	allowed, remaining, resetTime := bucket.take()

	var retryAfter time.Duration
	if !allowed {
		retryAfter = max(time.Until(resetTime), 0)
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      endpointConfig.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// getBucket gets or creates the bucket for key.
func (l *Limiter) getBucket(key string, ec *EndpointConfig) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bucket, ok := l.buckets.Get(key); ok {
		return bucket
	}

	capacity := ec.Burst
	if capacity <= 0 {
		capacity = ec.Limit
	}
	bucket := newTokenBucket(capacity, float64(ec.Limit)/ec.Window.Seconds())
	l.buckets.Add(key, bucket)
	return bucket
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	return l.buckets.Len()
}

// Stop drops every bucket.
func (l *Limiter) Stop() {
	l.buckets.Purge()
}
