package config

import "time"

// RateLimitConfig drives the token bucket applied to the write
// endpoints. Buckets are keyed per staff user and route (see
// middleware.NewTokenBucket): one cashier hammering retries cannot
// starve the rest of the floor, and a settle storm on one endpoint
// does not block order edits.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the limiter settings from the environment.
// The defaults assume manual staff actions: a burst of 30 with one
// token per second refill is far above any human cashier's pace.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        boolOr("RATE_LIMIT_ENABLED", true),
		Capacity:       intOr("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   intOr("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durDef("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            durDef("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         strOr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          boolOr("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Bucket state must outlive several refill cycles or idle buckets
	// reset to full capacity early.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
