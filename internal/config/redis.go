package config

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis for the response cache and the
// rate limiter. Address comes from REDIS_ADDR or REDIS_HOST/REDIS_PORT
// (default localhost:6379); REDIS_PASSWORD, REDIS_DB and REDIS_TLS are
// optional. Returns nil when the server cannot be reached, and callers
// degrade by disabling caching and rate limiting.
func NewRedisClient() *redis.Client {
	addr := strOr("REDIS_ADDR", "")
	if host, port := strOr("REDIS_HOST", ""), strOr("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	var tlsConf *tls.Config
	if boolOr("REDIS_TLS", false) {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  strOr("REDIS_PASSWORD", ""),
		DB:        intOr("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}
