package scale

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToUnitClampMapsAndClamps(t *testing.T) {
	t.Parallel()

	f := ToUnitClamp(0, 127)
	require.InDelta(t, 0.0, f(0), 1e-9)
	require.InDelta(t, 1.0, f(127), 1e-9)
	require.InDelta(t, 0.5, f(63.5), 1e-9)
	require.Equal(t, 0.0, f(-10))
	require.Equal(t, 1.0, f(200))
}

func TestClampHandlesDegenerateRange(t *testing.T) {
	t.Parallel()

	f := Clamp(5, 5, 0, 1)
	require.Equal(t, 0.0, f(5))
}
