package config

import (
	"strings"
	"time"
)

// CacheConfig drives the read-through response cache on the table and
// receipt read endpoints. Entries are keyed per tenant and per request
// URL; see middleware.NewRedisCache. Receipts are immutable once
// issued, so they tolerate a much longer TTL than the table views,
// which flip with every settlement.
type CacheConfig struct {
	Enabled      bool
	TableTTL     time.Duration
	ReceiptTTL   time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the cache settings from the environment,
// falling back to defaults tuned for a busy service floor.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      boolOr("CACHE_ENABLED", true),
		TableTTL:     durDef("CACHE_TABLE_TTL", 5*time.Second),
		ReceiptTTL:   durDef("CACHE_RECEIPT_TTL", 10*time.Minute),
		Prefix:       strOr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: intOr("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// TTLFor selects the entry lifetime for a request path.
func (c CacheConfig) TTLFor(path string) time.Duration {
	if strings.Contains(path, "/receipts/") {
		return c.ReceiptTTL
	}
	return c.TableTTL
}
