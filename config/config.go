// Package config loads the explicit configuration value handed to every
// component at construction time. There is no ambient mutable state; main
// builds one Config and passes pieces of it down.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the gate needs at startup.
type Config struct {
	ListenAddr string
	RedisURL   string // empty for the in-memory store

	TokenSecret []byte

	SessionTTL  time.Duration
	TokenTTL    time.Duration
	MaxTokenTTL time.Duration

	SecureCookies   bool
	StrictIPBinding bool
	LoginFailFloor  time.Duration
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      envDefault("LISTEN_ADDR", ":9000"),
		RedisURL:        os.Getenv("REDIS_URL"),
		TokenSecret:     []byte(os.Getenv("TOKEN_SECRET")),
		SessionTTL:      envDuration("SESSION_TTL", 24*time.Hour),
		TokenTTL:        envDuration("TOKEN_TTL", 10*time.Minute),
		MaxTokenTTL:     envDuration("MAX_TOKEN_TTL", 15*time.Minute),
		SecureCookies:   envBool("SECURE_COOKIES", true),
		StrictIPBinding: envBool("STRICT_IP_BINDING", false),
		LoginFailFloor:  envDuration("LOGIN_FAIL_FLOOR", 500*time.Millisecond),
	}

	if len(cfg.TokenSecret) < 32 {
		return Config{}, fmt.Errorf("TOKEN_SECRET must be at least 32 bytes")
	}
	if cfg.TokenTTL > cfg.MaxTokenTTL {
		return Config{}, fmt.Errorf("TOKEN_TTL exceeds MAX_TOKEN_TTL")
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
