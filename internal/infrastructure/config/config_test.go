package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.40, cfg.Scoring.MonitorThreshold)
	assert.Equal(t, 0.70, cfg.Scoring.ReviewThreshold)
	assert.Equal(t, 0.95, cfg.Scoring.DeclineThreshold)
	assert.Equal(t, int64(1_000_000), cfg.Scoring.HighValueThreshold)
	assert.Contains(t, cfg.Lists.FreeEmailDomains, "gmail.com")
	assert.Contains(t, cfg.Lists.DisposableEmailDomains, "tempmail.com")
	assert.Contains(t, cfg.Lists.Holidays, "12-25")
	assert.Equal(t, "models/fraud_model.json", cfg.Model.ArtifactPath)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FSB_SERVER_PORT", "9999")
	t.Setenv("FSB_SCORING_MONITOR_THRESHOLD", "0.35")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0.35, cfg.Scoring.MonitorThreshold)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
scoring:
  review_threshold: 0.65
lists:
  high_risk_countries: ["AA", "BB"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 0.65, cfg.Scoring.ReviewThreshold)
	assert.Equal(t, []string{"AA", "BB"}, cfg.Lists.HighRiskCountries)
	// untouched defaults survive
	assert.Equal(t, 0.95, cfg.Scoring.DeclineThreshold)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	t.Run("non-monotonic thresholds rejected", func(t *testing.T) {
		cfg := base()
		cfg.Scoring.ReviewThreshold = 0.30
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly increasing")
	})

	t.Run("threshold out of range", func(t *testing.T) {
		cfg := base()
		cfg.Scoring.DeclineThreshold = 1.2
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	})

	t.Run("missing artifact path", func(t *testing.T) {
		cfg := base()
		cfg.Model.ArtifactPath = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "artifact_path")
	})

	t.Run("bad batch workers", func(t *testing.T) {
		cfg := base()
		cfg.Scoring.BatchWorkers = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch_workers")
	})
}
