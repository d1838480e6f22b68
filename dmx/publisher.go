package dmx

import (
	"fmt"
	"math"
	"sort"

	"github.com/NullCarrierNC/photonics-dmx-sub002/color"
	"github.com/sirupsen/logrus"
)

// Publisher translates the bus's published per-light color map into one
// dense DMX universe per tick, using the fixture-channel table to resolve
// each light's outgoing channel tuple.
type Publisher struct {
	table      *Table
	brightness float64
	log        *logrus.Logger
}

// NewPublisher returns a Publisher bound to a fixture table. Brightness
// defaults to 1.0 (no attenuation).
func NewPublisher(table *Table, log *logrus.Logger) *Publisher {
	return &Publisher{table: table, brightness: 1.0, log: log}
}

// SetBrightness applies a global attenuation factor to every non-pan/tilt
// channel before it's written, per the `brightness` config option.
func (p *Publisher) SetBrightness(factor float64) {
	p.brightness = factor
}

// Publish builds one universe from the published per-light color map.
// Lights are processed in id-sorted order for determinism. Unknown fixture
// kinds or missing mappings are logged and skipped - other lights are
// unaffected.
func (p *Publisher) Publish(lights map[string]color.Sample) Universe {
	u := Universe{}

	ids := make([]string, 0, len(lights))
	for id := range lights {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		mapping, ok := p.table.Lookup(id)
		if !ok {
			p.log.WithField("light", id).Warn("dmx: no fixture mapping for light, skipping")
			continue
		}
		if err := p.writeFixture(&u, mapping, lights[id]); err != nil {
			p.log.WithFields(logrus.Fields{"light": id, "kind": mapping.Kind}).Warnf("dmx: %v", err)
		}
	}

	return u
}

func (p *Publisher) writeFixture(u *Universe, m FixtureMapping, c color.Sample) error {
	scale := func(v uint8) uint8 {
		return color.ClampByte(int(math.Round(float64(v) * p.brightness)))
	}

	switch m.Kind {
	case KindRGB:
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelRed: scale(c.Red), ChannelGreen: scale(c.Green), ChannelBlue: scale(c.Blue),
		})
	case KindRGBW:
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelRed: scale(c.Red), ChannelGreen: scale(c.Green), ChannelBlue: scale(c.Blue),
			ChannelWhite: scale(c.Intensity),
		})
	case KindRGBStrobe:
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelRed: scale(c.Red), ChannelGreen: scale(c.Green), ChannelBlue: scale(c.Blue),
			ChannelStrobe: scale(c.Intensity),
		})
	case KindStrobe:
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelStrobe: scale(c.Intensity),
		})
	case KindDimmer:
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelMasterDimmer: scale(c.Intensity),
		})
	case KindMovingHeadRGB:
		pan, tilt := m.HomePan, m.HomeTilt
		if c.Pan != nil {
			pan = *c.Pan
		}
		if c.Tilt != nil {
			tilt = *c.Tilt
		}
		return p.writeChannels(u, m, map[ChannelName]uint8{
			ChannelRed: scale(c.Red), ChannelGreen: scale(c.Green), ChannelBlue: scale(c.Blue),
			ChannelPan: pan, ChannelTilt: tilt,
		})
	default:
		return fmt.Errorf("unknown fixture kind %q", m.Kind)
	}
}

func (p *Publisher) writeChannels(u *Universe, m FixtureMapping, values map[ChannelName]uint8) error {
	for name, v := range values {
		ch, ok := m.Channels[name]
		if !ok {
			continue
		}
		if ch < 1 || ch > Channels {
			return fmt.Errorf("channel %q maps to out-of-range universe channel %d", name, ch)
		}
		u[ch-1] = v
	}
	return nil
}
