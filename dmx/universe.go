// Package dmx translates the bus's per-light color map into a 512-channel
// DMX universe using a fixture-channel table, and defines the fixture kinds
// the table can describe.
package dmx

// Channels is the fixed width of one DMX universe.
const Channels = 512

// Universe is a dense 512-byte DMX buffer, one byte per channel (1-indexed
// in the fixture table, 0-indexed here).
type Universe [Channels]byte

// Blackout returns an all-zero universe, used on shutdown and whenever a
// sink needs a baseline frame.
func Blackout() Universe {
	return Universe{}
}

// FixtureKind names the channel layout a fixture uses.
type FixtureKind string

const (
	KindRGB          FixtureKind = "rgb"
	KindRGBW         FixtureKind = "rgbw"
	KindRGBStrobe    FixtureKind = "rgb_strobe"
	KindStrobe       FixtureKind = "strobe"
	KindMovingHeadRGB FixtureKind = "moving_head_rgb"
	KindDimmer       FixtureKind = "dimmer"
)

// ChannelName is one of the fixture-channel table's addressable channel
// names, using the same vocabulary as the teacher's fixture profiles
// (profile.ChannelTypeRed, ChannelTypePan, ...).
type ChannelName string

const (
	ChannelRed           ChannelName = "red"
	ChannelGreen         ChannelName = "green"
	ChannelBlue          ChannelName = "blue"
	ChannelWhite         ChannelName = "white"
	ChannelMasterDimmer  ChannelName = "masterDimmer"
	ChannelStrobe        ChannelName = "strobe"
	ChannelPan           ChannelName = "pan"
	ChannelTilt          ChannelName = "tilt"
)

// FixtureMapping is one light's fixture kind and its channel-name-to-
// universe-channel table (1-indexed, matching real DMX addressing).
type FixtureMapping struct {
	LightID    string
	Kind       FixtureKind
	Channels   map[ChannelName]int // channel name -> universe channel 1..512
	HomePan    uint8
	HomeTilt   uint8
}

// Table is the fixture-channel table: one mapping per light.
type Table struct {
	fixtures map[string]FixtureMapping
}

// NewTable builds a Table from a slice of mappings.
func NewTable(mappings []FixtureMapping) *Table {
	t := &Table{fixtures: make(map[string]FixtureMapping, len(mappings))}
	for _, m := range mappings {
		t.fixtures[m.LightID] = m
	}
	return t
}

// Lookup returns the fixture mapping for a light id.
func (t *Table) Lookup(lightID string) (FixtureMapping, bool) {
	m, ok := t.fixtures[lightID]
	return m, ok
}

// LightIDs returns every light id known to the table, for iteration in a
// stable order by the caller.
func (t *Table) LightIDs() []string {
	out := make([]string, 0, len(t.fixtures))
	for id := range t.fixtures {
		out = append(out, id)
	}
	return out
}
