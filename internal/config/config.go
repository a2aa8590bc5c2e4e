// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// DefaultAPIBaseURL is the production VaultPay API.
const DefaultAPIBaseURL = "https://bank-backend-production-8bb8.up.railway.app/"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	APIBaseURL     string
	DBPath         string
	KeyringService string
	KeyAlias       string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	RequestTimeout time.Duration
	MaxRPS         float64
	Debug          bool
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional:
// VAULTPAY_API_BASE_URL (production API), VAULTPAY_DB_PATH (vaultpay.db),
// VAULTPAY_KEYRING_SERVICE (vaultpay), VAULTPAY_KEY_ALIAS (vaultpay_key_alias),
// VAULTPAY_CONNECT_TIMEOUT, VAULTPAY_READ_TIMEOUT and VAULTPAY_REQUEST_TIMEOUT (30s each),
// VAULTPAY_MAX_RPS (2, 0 disables the client-side throttle), VAULTPAY_DEBUG (false).
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:     DefaultAPIBaseURL,
		DBPath:         "vaultpay.db",
		KeyringService: "vaultpay",
		KeyAlias:       "vaultpay_key_alias",
		ConnectTimeout: 30 * time.Second,
		ReadTimeout:    30 * time.Second,
		RequestTimeout: 30 * time.Second,
		MaxRPS:         2,
	}

	if v, ok := os.LookupEnv("VAULTPAY_API_BASE_URL"); ok {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("VAULTPAY_API_BASE_URL must be an absolute http(s) URL, got %q", v)
		}
		cfg.APIBaseURL = v
	}

	if v, ok := nonEmptyEnv("VAULTPAY_DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := nonEmptyEnv("VAULTPAY_KEYRING_SERVICE"); ok {
		cfg.KeyringService = v
	}
	if v, ok := nonEmptyEnv("VAULTPAY_KEY_ALIAS"); ok {
		cfg.KeyAlias = v
	}

	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"VAULTPAY_CONNECT_TIMEOUT", &cfg.ConnectTimeout},
		{"VAULTPAY_READ_TIMEOUT", &cfg.ReadTimeout},
		{"VAULTPAY_REQUEST_TIMEOUT", &cfg.RequestTimeout},
	} {
		v, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%s has invalid duration %q: %w", d.key, v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %q", d.key, v)
		}
		*d.dst = parsed
	}

	if v, ok := os.LookupEnv("VAULTPAY_MAX_RPS"); ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("VAULTPAY_MAX_RPS has invalid number %q: %w", v, err)
		}
		if parsed < 0 {
			return nil, fmt.Errorf("VAULTPAY_MAX_RPS must not be negative, got %q", v)
		}
		cfg.MaxRPS = parsed
	}

	if v, ok := os.LookupEnv("VAULTPAY_DEBUG"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("VAULTPAY_DEBUG has invalid boolean %q: %w", v, err)
		}
		cfg.Debug = parsed
	}

	return cfg, nil
}

func nonEmptyEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	return v, ok && v != ""
}
