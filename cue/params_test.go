package cue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaledParamMapsRawIntensityToUnitRange(t *testing.T) {
	t.Parallel()

	params := map[string]any{"intensity": 63.5}
	v, ok := ScaledParam(params, "intensity", 0, 127)
	require.True(t, ok)
	require.InDelta(t, 0.5, v, 1e-9)
}

func TestScaledParamMissingKeyReportsNotOK(t *testing.T) {
	t.Parallel()

	_, ok := ScaledParam(map[string]any{}, "intensity", 0, 127)
	require.False(t, ok)
}

func TestFloatParamAcceptsIntLiterals(t *testing.T) {
	t.Parallel()

	v, ok := FloatParam(map[string]any{"count": 3}, "count")
	require.True(t, ok)
	require.Equal(t, 3.0, v)
}
