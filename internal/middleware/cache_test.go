package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/config"
)

func cacheContext(t *testing.T, target string, restaurantID float64) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/tables/:id") // echo route pattern, identical for both tables
	c.Set("restaurant_id", restaurantID)
	return c
}

func TestCacheKeyScopedToURL(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	k1 := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables/1", 1))
	k2 := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables/2", 1))
	if k1 == k2 {
		t.Fatalf("different tables share a cache key: %s", k1)
	}
	// The same request must keep hitting the same entry.
	if again := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables/1", 1)); again != k1 {
		t.Fatalf("key not stable: %s vs %s", again, k1)
	}
}

func TestCacheKeyScopedToTenant(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	a := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables", 1))
	b := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables", 2))
	if a == b {
		t.Fatalf("two restaurants share a cache key: %s", a)
	}
}

func TestCacheKeyScopedToQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}
	a := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables?page=1", 1))
	b := cacheKeyFrom(cfg, cacheContext(t, "/v1/tables?page=2", 1))
	if a == b {
		t.Fatalf("different queries share a cache key: %s", a)
	}
}

func TestRateKeyScopedToUserAndRoute(t *testing.T) {
	cfg := config.RateLimitConfig{Prefix: "rl"}

	makeCtx := func(userID float64, path string) echo.Context {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath(path)
		c.Set("user_id", userID)
		return c
	}

	if rateKeyFrom(cfg, makeCtx(1, "/v1/tables/:id/settle")) == rateKeyFrom(cfg, makeCtx(2, "/v1/tables/:id/settle")) {
		t.Fatalf("two users share a rate-limit bucket")
	}
	if rateKeyFrom(cfg, makeCtx(1, "/v1/tables/:id/settle")) == rateKeyFrom(cfg, makeCtx(1, "/v1/orders/:id/modify")) {
		t.Fatalf("two routes share a rate-limit bucket")
	}
	if rateKeyFrom(cfg, makeCtx(1, "/v1/tables/:id/settle")) != rateKeyFrom(cfg, makeCtx(1, "/v1/tables/:id/settle")) {
		t.Fatalf("rate-limit key not stable")
	}
}
