package thirteenf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	thirteenf "github.com/RxDataLab/go-thirteenf"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SEC_USER_AGENT", "")
	t.Setenv("THIRTEENF_CACHE_DIR", "")
	t.Setenv("THIRTEENF_CACHE_TTL", "")
	t.Setenv("THIRTEENF_REQUESTS_PER_SECOND", "")

	cfg, err := thirteenf.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10.0, cfg.RequestsPerSecond)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SEC_USER_AGENT", "Sample Co admin@sample.com")
	t.Setenv("THIRTEENF_CACHE_DIR", "/tmp/13f-cache")
	t.Setenv("THIRTEENF_CACHE_TTL", "1h")
	t.Setenv("THIRTEENF_REQUESTS_PER_SECOND", "5")

	cfg, err := thirteenf.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "Sample Co admin@sample.com", cfg.UserAgent)
	assert.Equal(t, "/tmp/13f-cache", cfg.CacheDir)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 5.0, cfg.RequestsPerSecond)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("THIRTEENF_CACHE_TTL", "yesterday")
	_, err := thirteenf.LoadConfig()
	assert.Error(t, err)

	t.Setenv("THIRTEENF_CACHE_TTL", "")
	t.Setenv("THIRTEENF_REQUESTS_PER_SECOND", "-3")
	_, err = thirteenf.LoadConfig()
	assert.Error(t, err)
}
