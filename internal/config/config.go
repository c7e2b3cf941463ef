package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Money-free here: tax and service-charge
// rates are per-tenant data in the restaurants table, not env config.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	DBUser        string        // database username
	DBPass        string        // database password (optional)
	DBHost        string        // database host address
	DBPort        string        // database port number
	DBName        string        // database name
	JWTSecret     string        // secret used to verify staff JWTs
	AMQPURL       string        // RabbitMQ URL (optional, defaults handled by queue package)
	TxTimeout     time.Duration // bound on every mutating transaction
	SweepInterval time.Duration // period of the occupancy sweep
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"), // empty allowed
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AMQPURL:       os.Getenv("RABBITMQ_URL"),
		TxTimeout:     durOr("TX_TIMEOUT", 5*time.Second),
		SweepInterval: durOr("OCCUPANCY_SWEEP_INTERVAL", 24*time.Hour),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// durOr parses a duration env var, falling back to the default when
// unset or malformed.
func durOr(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}
