package bus

import (
	"testing"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/stretchr/testify/require"
)

func TestCommitIsNoOpWithNothingStaged(t *testing.T) {
	t.Parallel()

	b := New()
	calls := 0
	b.Subscribe(func(map[string]color.Sample) { calls++ })
	b.CommitFrame()
	require.Zero(t, calls)
}

func TestCommitPublishesOneFrame(t *testing.T) {
	t.Parallel()

	b := New()
	var got map[string]color.Sample
	b.Subscribe(func(f map[string]color.Sample) { got = f })

	b.Stage("par1", color.Sample{Red: 10})
	b.Stage("par2", color.Sample{Red: 20})
	b.CommitFrame()

	require.Len(t, got, 2)
	require.Equal(t, uint8(10), got["par1"].Red)

	pub := b.Published()
	require.Equal(t, got["par1"], pub["par1"])
}

func TestStagingAfterCommitDoesNotMutatePublishedFrame(t *testing.T) {
	t.Parallel()

	b := New()
	b.Stage("par1", color.Sample{Red: 10})
	b.CommitFrame()
	frame1 := b.Published()

	b.Stage("par1", color.Sample{Red: 200})
	b.CommitFrame()

	require.Equal(t, uint8(10), frame1["par1"].Red)
	require.Equal(t, uint8(200), b.Published()["par1"].Red)
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	t.Parallel()

	b := New()
	calls := 0
	token := b.Subscribe(func(map[string]color.Sample) { calls++ })
	b.Unsubscribe(token)

	b.Stage("par1", color.Sample{})
	b.CommitFrame()
	require.Zero(t, calls)
}
