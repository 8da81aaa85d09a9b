package thirteenf

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the operator-supplied settings read from the environment.
type Config struct {
	// UserAgent identifies the operator to SEC, e.g. "Sample Co
	// admin@sample.com". SEC blocks unidentified traffic, so this is
	// required for real use.
	UserAgent string

	// CacheDir is where fetched payloads are cached on disk.
	CacheDir string

	// CacheTTL is how long cached payloads stay fresh.
	CacheTTL time.Duration

	// RequestsPerSecond caps the outbound request rate.
	RequestsPerSecond float64
}

// LoadConfig reads configuration from the environment, first loading a
// .env file if one exists. Missing variables fall back to defaults; only
// an unparsable value is an error.
func LoadConfig() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := &Config{
		UserAgent:         os.Getenv("SEC_USER_AGENT"),
		CacheDir:          os.Getenv("THIRTEENF_CACHE_DIR"),
		CacheTTL:          CacheTTL,
		RequestsPerSecond: requestsPerSecond,
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir
	}

	if v := os.Getenv("THIRTEENF_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid THIRTEENF_CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = ttl
	}

	if v := os.Getenv("THIRTEENF_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("invalid THIRTEENF_REQUESTS_PER_SECOND %q", v)
		}
		cfg.RequestsPerSecond = rps
	}

	return cfg, nil
}

const defaultCacheDir = "cache"
