package config

import (
	"testing"
	"time"
)

func TestCacheTTLFor(t *testing.T) {
	cfg := CacheConfig{TableTTL: 5 * time.Second, ReceiptTTL: 10 * time.Minute}
	if got := cfg.TTLFor("/v1/receipts/BELLA1-20250301-0007"); got != 10*time.Minute {
		t.Fatalf("receipt TTL = %v, want 10m", got)
	}
	if got := cfg.TTLFor("/v1/tables/4"); got != 5*time.Second {
		t.Fatalf("table TTL = %v, want 5s", got)
	}
	if got := cfg.TTLFor("/v1/tables"); got != 5*time.Second {
		t.Fatalf("table list TTL = %v, want 5s", got)
	}
}
