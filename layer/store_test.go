package layer

import (
	"testing"
	"time"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/stretchr/testify/require"
)

func TestPutActiveFailsWhenOccupied(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.NoError(t, s.PutActive(1, "par1", &Record{Name: "a"}))
	err := s.PutActive(1, "par1", &Record{Name: "b"})
	require.Error(t, err)
}

func TestQueueIsFIFO(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Enqueue(1, "par1", &QueueEntry{Name: "first"})
	s.Enqueue(1, "par1", &QueueEntry{Name: "second"})

	e, ok := s.Dequeue(1, "par1")
	require.True(t, ok)
	require.Equal(t, "first", e.Name)

	e, ok = s.Dequeue(1, "par1")
	require.True(t, ok)
	require.Equal(t, "second", e.Name)

	_, ok = s.Dequeue(1, "par1")
	require.False(t, ok)
}

func TestLayerZeroNeverCleaned(t *testing.T) {
	t.Parallel()

	s := NewStore()
	now := time.Now()
	s.TouchLayer(0, now.Add(-time.Hour))
	removed := s.CleanupIdleLayers(now, 5*time.Second)
	require.Empty(t, removed)
	require.Contains(t, s.Layers(), 0)
}

func TestCleanupIdleLayersRespectsGraceAndActivity(t *testing.T) {
	t.Parallel()

	s := NewStore()
	now := time.Now()

	s.TouchLayer(2, now.Add(-10*time.Second))
	removed := s.CleanupIdleLayers(now, 5*time.Second)
	require.Equal(t, []int{2}, removed)

	require.NoError(t, s.PutActive(3, "par1", &Record{Name: "busy"}))
	s.TouchLayer(3, now.Add(-10*time.Second))
	removed = s.CleanupIdleLayers(now, 5*time.Second)
	require.Empty(t, removed)
}

func TestActiveRecordWithName(t *testing.T) {
	t.Parallel()

	s := NewStore()
	require.False(t, s.ActiveRecordWithName("chase"))
	require.NoError(t, s.PutActive(0, "par1", &Record{Name: "chase"}))
	require.True(t, s.ActiveRecordWithName("chase"))
}

func TestClearLayerExceptActivePreservesNamedLightsOnly(t *testing.T) {
	t.Parallel()

	s := NewStore()
	kept := &Record{Name: "base"}
	require.NoError(t, s.PutActive(0, "par1", kept))
	require.NoError(t, s.PutActive(0, "par2", &Record{Name: "other"}))
	s.Enqueue(0, "par1", &QueueEntry{Name: "queued"})
	s.SetLightState(0, "par2", color.Sample{Red: 1})

	s.ClearLayerExceptActive(0, map[string]bool{"par1": true})

	got, ok := s.GetActive(0, "par1")
	require.True(t, ok)
	require.Same(t, kept, got, "preserved record must be the same instance, not re-created")
	require.Equal(t, 0, s.QueueLen(0, "par1"), "queues are cleared even for preserved lights")

	_, ok = s.GetActive(0, "par2")
	require.False(t, ok)
	_, ok = s.GetLightState(0, "par2")
	require.False(t, ok)
}
