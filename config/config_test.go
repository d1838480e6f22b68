package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	t.Parallel()

	d := Default()
	require.Equal(t, 60, d.TickHz)
	require.Equal(t, int64(5000), d.LayerGraceMs)
	require.Equal(t, int64(2000), d.ConsistencyWindowMs)
	require.Equal(t, int64(15000), d.InactivityMs)
	require.Equal(t, int64(5), d.DriftThresholdMs)
	require.Equal(t, int64(1000), d.DriftCheckIntervalMs)
	require.Equal(t, 500, d.ProtectedLayerMin)
	require.Equal(t, "max", d.BrightnessLevel)
	require.Equal(t, 1.0, d.Brightness.Max)
	require.NoError(t, d.Validate())
}

func TestLoadOverlaysPartialFileOntoDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickHz: 30\nbrightness:\n  max: 0.5\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TickHz)
	require.Equal(t, 0.5, cfg.Brightness.Max)
	require.Equal(t, int64(5000), cfg.LayerGraceMs, "unset fields keep their default")
}

func TestBrightnessFactorResolvesNamedLevel(t *testing.T) {
	t.Parallel()

	b := BrightnessLevels{Low: 0.1, Medium: 0.2, High: 0.3, Max: 1.0}
	require.Equal(t, 0.1, b.Factor("low"))
	require.Equal(t, 0.2, b.Factor("medium"))
	require.Equal(t, 0.3, b.Factor("high"))
	require.Equal(t, 1.0, b.Factor("max"))
	require.Equal(t, 1.0, b.Factor("unknown"), "unrecognized level falls back to max")
}

func TestValidateRejectsOutOfRangeConsistencyWindow(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ConsistencyWindowMs = 50000
	require.Error(t, cfg.Validate())
}

func TestFixtureTableBuildsFromSpecs(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Fixtures = []FixtureSpec{{LightID: "par1"}}
	table := cfg.FixtureTable()
	_, ok := table.Lookup("par1")
	require.True(t, ok)
}
