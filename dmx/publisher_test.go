package dmx

import (
	"testing"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestPublishRGBFixture(t *testing.T) {
	t.Parallel()

	table := NewTable([]FixtureMapping{
		{LightID: "par1", Kind: KindRGB, Channels: map[ChannelName]int{
			ChannelRed: 1, ChannelGreen: 2, ChannelBlue: 3,
		}},
	})
	pub := NewPublisher(table, testLogger())

	u := pub.Publish(map[string]color.Sample{
		"par1": {Red: 10, Green: 20, Blue: 30, Opacity: 1},
	})
	require.Equal(t, byte(10), u[0])
	require.Equal(t, byte(20), u[1])
	require.Equal(t, byte(30), u[2])
}

func TestPublishUnknownFixtureSkipsOnlyThatLight(t *testing.T) {
	t.Parallel()

	table := NewTable([]FixtureMapping{
		{LightID: "par1", Kind: "bogus-kind", Channels: map[ChannelName]int{}},
		{LightID: "par2", Kind: KindRGB, Channels: map[ChannelName]int{ChannelRed: 10}},
	})
	pub := NewPublisher(table, testLogger())

	u := pub.Publish(map[string]color.Sample{
		"par1": {Red: 5, Opacity: 1},
		"par2": {Red: 99, Opacity: 1},
	})
	require.Equal(t, byte(99), u[9])
}

func TestMovingHeadDefaultsToHomeWhenUndefined(t *testing.T) {
	t.Parallel()

	table := NewTable([]FixtureMapping{
		{LightID: "spot1", Kind: KindMovingHeadRGB, HomePan: 128, HomeTilt: 64, Channels: map[ChannelName]int{
			ChannelRed: 1, ChannelGreen: 2, ChannelBlue: 3, ChannelPan: 4, ChannelTilt: 5,
		}},
	})
	pub := NewPublisher(table, testLogger())

	u := pub.Publish(map[string]color.Sample{"spot1": {Opacity: 1}})
	require.Equal(t, byte(128), u[3])
	require.Equal(t, byte(64), u[4])
}

func TestBrightnessScalesColorButNotPanTilt(t *testing.T) {
	t.Parallel()

	table := NewTable([]FixtureMapping{
		{LightID: "spot1", Kind: KindMovingHeadRGB, Channels: map[ChannelName]int{
			ChannelRed: 1, ChannelPan: 2,
		}},
	})
	pub := NewPublisher(table, testLogger())
	pub.SetBrightness(0.5)

	pan := uint8(200)
	u := pub.Publish(map[string]color.Sample{"spot1": {Red: 200, Opacity: 1, Pan: &pan}})
	require.Equal(t, byte(100), u[0])
	require.Equal(t, byte(200), u[1])
}

func TestChannelsClampAllOutputs(t *testing.T) {
	t.Parallel()

	table := NewTable([]FixtureMapping{
		{LightID: "par1", Kind: KindRGB, Channels: map[ChannelName]int{ChannelRed: 1}},
	})
	pub := NewPublisher(table, testLogger())
	pub.SetBrightness(2)

	u := pub.Publish(map[string]color.Sample{"par1": {Red: 200, Opacity: 1}})
	require.Equal(t, byte(255), u[0])
}
