package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesSpec(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.10, cfg.Hebbian.Rate)
	assert.Equal(t, 0.95, cfg.Decay.RatePerDay)
	assert.Equal(t, 0.05, cfg.Decay.MinStrength)
	assert.Equal(t, 1, cfg.Spread.MaxHops)
	assert.Equal(t, 0.10, cfg.Spread.Threshold)
	assert.Equal(t, 50, cfg.Spread.Limit)
	assert.Equal(t, 0.50, cfg.Score.Weights.Embedding)
	assert.Equal(t, 0.30, cfg.Score.Weights.Cooccurrence)
	assert.Equal(t, 0.20, cfg.Score.Weights.Spread)
	assert.Equal(t, 0.10, cfg.Score.Weights.Keyword)
	assert.Equal(t, 0.80, cfg.Consolidation.Thresholds.High)
	assert.Equal(t, 0.50, cfg.Consolidation.Thresholds.Mid)
	assert.Equal(t, 0.30, cfg.Consolidation.Thresholds.Low)
	assert.Equal(t, 10, cfg.Budget.L1Tokens)
	assert.Equal(t, 50, cfg.Budget.L2Tokens)
	assert.Equal(t, 200, cfg.Budget.L3Tokens)
	assert.Equal(t, 4, cfg.Runtime.WorkerPool)
	assert.Equal(t, 5000, cfg.Runtime.ShutdownGraceMS)
	assert.Equal(t, "primary", cfg.Storage.Mode)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("hebbian:\n  rate: 0.25\nstorage:\n  mode: demo\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Hebbian.Rate)
	assert.Equal(t, "demo", cfg.Storage.Mode)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.95, cfg.Decay.RatePerDay)
}

func TestDBPathSelectsMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "data"
	cfg.Storage.Mode = "primary"
	assert.Equal(t, filepath.Join("data", "linkcore.db"), cfg.DBPath())

	cfg.Storage.Mode = "demo"
	assert.Equal(t, filepath.Join("data", "linkcore-demo.db"), cfg.DBPath())
}
