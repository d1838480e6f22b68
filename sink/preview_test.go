package sink

import (
	"testing"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testPreviewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestPreviewDecodesUniverseIntoPerLightTuples(t *testing.T) {
	t.Parallel()

	table := dmx.NewTable([]dmx.FixtureMapping{
		{LightID: "par1", Kind: dmx.KindRGB, Channels: map[dmx.ChannelName]int{
			dmx.ChannelRed: 1, dmx.ChannelGreen: 2, dmx.ChannelBlue: 3,
		}},
		{LightID: "mover1", Kind: dmx.KindMovingHeadRGB, Channels: map[dmx.ChannelName]int{
			dmx.ChannelRed: 10, dmx.ChannelGreen: 11, dmx.ChannelBlue: 12,
			dmx.ChannelPan: 13, dmx.ChannelTilt: 14,
		}, HomePan: 128, HomeTilt: 64},
	})
	p := NewPreviewSink(table, testPreviewLogger())

	u := dmx.Universe{}
	u[0], u[1], u[2] = 10, 20, 30
	u[9], u[10], u[11] = 1, 2, 3
	u[12], u[13] = 200, 100

	lights := p.decode(u)
	require.Equal(t, [6]byte{10, 20, 30, 0, 0, 0}, lights["par1"])
	require.Equal(t, [6]byte{1, 2, 3, 0, 200, 100}, lights["mover1"])
}

func TestPreviewFallsBackToHomePanTiltWhenUnaddressed(t *testing.T) {
	t.Parallel()

	table := dmx.NewTable([]dmx.FixtureMapping{
		{LightID: "par1", Kind: dmx.KindRGB, Channels: map[dmx.ChannelName]int{
			dmx.ChannelRed: 1,
		}, HomePan: 50, HomeTilt: 60},
	})
	p := NewPreviewSink(table, testPreviewLogger())

	lights := p.decode(dmx.Universe{})
	require.Equal(t, [6]byte{0, 0, 0, 0, 50, 60}, lights["par1"])
}
