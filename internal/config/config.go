package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables.
// Everything is read once at process start.
type Config struct {
	HTTPPort         string
	AppMode          string
	FiberPrefork     bool
	EngineURL        string
	AuthBaseURL      string
	AuthRealm        string
	AuthAPIKey       string
	AuthNonce        string
	AuthRedirectPath string
	LogoutURL        string
	TimeZone         string
	RefreshEnabled   bool
	RefreshInterval  time.Duration
}

// Load reads configuration from environment variables with sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:         getEnv("HTTP_PORT", ":8080"),
		AppMode:          strings.ToLower(getEnv("APP_MODE", "dev")),
		FiberPrefork:     parseBoolEnv("FIBER_PREFORK", false),
		AuthRedirectPath: getEnv("AUTH_REDIRECT_PATH", "www/"),
		TimeZone:         getEnv("TIME_ZONE", "Australia/Adelaide"),
		RefreshEnabled:   parseBoolEnv("REFRESH_ENABLED", true),
		RefreshInterval:  parseDurationEnv("REFRESH_INTERVAL", 10*time.Second),
	}

	required := []struct {
		key string
		dst *string
	}{
		{"ELASTICSEARCH_URL", &cfg.EngineURL},
		{"ELASTIC_AUTH_BASE_URL", &cfg.AuthBaseURL},
		{"ELASTIC_AUTH_REALM", &cfg.AuthRealm},
		{"ELASTIC_API_KEY", &cfg.AuthAPIKey},
		{"AUTH_NONCE", &cfg.AuthNonce},
		{"LOGOUT_URL", &cfg.LogoutURL},
	}
	for _, r := range required {
		*r.dst = os.Getenv(r.key)
		if *r.dst == "" {
			return nil, fmt.Errorf("%s is required", r.key)
		}
	}

	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", cfg.TimeZone, err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseBoolEnv(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
