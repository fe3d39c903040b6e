package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "https://geocode.maps.co/search", cfg.Geocode.BaseURL)
	assert.Empty(t, cfg.Geocode.APIKey)
	assert.Equal(t, 30, cfg.Geocode.TimeoutSecs)
	assert.Equal(t, 5, cfg.Geocode.MaxRetries)
	assert.Equal(t, 1000, cfg.Geocode.InitialBackoffMs)
	assert.InDelta(t, 2.0, cfg.Geocode.BackoffMultiplier, 0.001)
	assert.Zero(t, cfg.Geocode.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.Enrich.PauseMs)
	assert.False(t, cfg.Enrich.Refetch)
	assert.Equal(t, DefaultFiles(), cfg.Files)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: json
geocode:
  api_key: from-file
  max_retries: 3
enrich:
  pause_ms: 250
files:
  - input: restaurants.json
    output: out/restaurants.json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "from-file", cfg.Geocode.APIKey)
	assert.Equal(t, 3, cfg.Geocode.MaxRetries)
	assert.Equal(t, 250, cfg.Enrich.PauseMs)
	require.Len(t, cfg.Files, 1)
	assert.Equal(t, FilePair{Input: "restaurants.json", Output: "out/restaurants.json"}, cfg.Files[0])
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Geocode.InitialBackoffMs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
geocode:
  api_key: from-file
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("COORDFILL_GEOCODE_API_KEY", "from-env")
	t.Setenv("COORDFILL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Geocode.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("COORDFILL_ENRICH_PAUSE_MS", "0")
	t.Setenv("COORDFILL_GEOCODE_REQUESTS_PER_SECOND", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Enrich.PauseMs)
	assert.InDelta(t, 1.0, cfg.Geocode.RequestsPerSecond, 0.001)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("geocode: [unterminated"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Geocode: GeocodeConfig{
			BaseURL:           "https://geocode.maps.co/search",
			APIKey:            "key",
			MaxRetries:        5,
			InitialBackoffMs:  1000,
			BackoffMultiplier: 2,
		},
		Enrich: EnrichConfig{PauseMs: 1000},
		Files:  DefaultFiles(),
	}
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validDefaults()
	for _, command := range []string{"run", "update", "fetch"} {
		assert.NoError(t, cfg.Validate(command), command)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.APIKey = ""

	err := cfg.Validate("fetch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.api_key is required")
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := validDefaults()
	cfg.Geocode.MaxRetries = -1
	cfg.Enrich.PauseMs = -5

	err := cfg.Validate("update")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocode.max_retries must be >= 0")
	assert.Contains(t, err.Error(), "enrich.pause_ms must be >= 0")
}

func TestValidate_RunNeedsFiles(t *testing.T) {
	cfg := validDefaults()
	cfg.Files = []FilePair{{Input: "a.json"}}

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "files[0]: input and output are required")

	// update takes its paths from arguments.
	assert.NoError(t, cfg.Validate("update"))
}
