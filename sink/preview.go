package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// previewFrame is the JSON shape broadcast to connected preview clients:
// one [red, green, blue, intensity, pan, tilt] tuple per light known to the
// fixture table, decoded back out of the published universe.
type previewFrame struct {
	Lights map[string][6]byte `json:"lights"`
}

// PreviewSink fans a committed universe out to any number of connected
// browser preview clients over websockets. Each write is bounded by the
// deadline of the context passed to Send, when it has one (the engine
// passes one tick period); a client whose write fails or times out is
// dropped and its connection pruned.
type PreviewSink struct {
	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
	table    *dmx.Table
	log      *logrus.Logger
}

// NewPreviewSink returns a PreviewSink ready to accept websocket upgrades
// via its Handler. table resolves each universe back into the per-light
// tuples the preview protocol broadcasts.
func NewPreviewSink(table *dmx.Table, log *logrus.Logger) *PreviewSink {
	return &PreviewSink{
		conns: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		table: table,
		log:   log,
	}
}

// Handler upgrades incoming HTTP connections to websockets and registers
// them to receive future frames.
func (p *PreviewSink) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.WithError(err).Warn("sink: preview upgrade failed")
		return
	}
	p.mu.Lock()
	p.conns[conn] = struct{}{}
	p.mu.Unlock()

	go p.readUntilClosed(conn)
}

// readUntilClosed drains and discards client frames purely to detect
// disconnects; the preview protocol is publish-only.
func (p *PreviewSink) readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			p.mu.Lock()
			delete(p.conns, conn)
			p.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
}

// Send broadcasts u, decoded into per-light tuples, as JSON to every
// connected preview client.
func (p *PreviewSink) Send(ctx context.Context, u dmx.Universe) error {
	payload, err := json.Marshal(previewFrame{Lights: p.decode(u)})
	if err != nil {
		return err
	}

	p.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(p.conns))
	for c := range p.conns {
		conns = append(conns, c)
	}
	p.mu.Unlock()

	deadline, hasDeadline := ctx.Deadline()
	for _, c := range conns {
		if hasDeadline {
			_ = c.SetWriteDeadline(deadline)
		}
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			p.mu.Lock()
			delete(p.conns, c)
			p.mu.Unlock()
			_ = c.Close()
		}
	}
	return nil
}

// decode resolves u into one [r,g,b,i,pan,tilt] tuple per light the fixture
// table knows about. Intensity prefers a white channel, then a master
// dimmer, then a strobe channel - whichever the fixture's kind defines.
func (p *PreviewSink) decode(u dmx.Universe) map[string][6]byte {
	lights := make(map[string][6]byte, len(p.table.LightIDs()))
	for _, id := range p.table.LightIDs() {
		m, ok := p.table.Lookup(id)
		if !ok {
			continue
		}
		lights[id] = previewTuple(u, m)
	}
	return lights
}

func previewTuple(u dmx.Universe, m dmx.FixtureMapping) [6]byte {
	get := func(name dmx.ChannelName) byte {
		ch, ok := m.Channels[name]
		if !ok || ch < 1 || ch > dmx.Channels {
			return 0
		}
		return u[ch-1]
	}

	intensity := get(dmx.ChannelWhite)
	if intensity == 0 {
		intensity = get(dmx.ChannelMasterDimmer)
	}
	if intensity == 0 {
		intensity = get(dmx.ChannelStrobe)
	}

	pan, tilt := m.HomePan, m.HomeTilt
	if ch, ok := m.Channels[dmx.ChannelPan]; ok && ch >= 1 && ch <= dmx.Channels {
		pan = u[ch-1]
	}
	if ch, ok := m.Channels[dmx.ChannelTilt]; ok && ch >= 1 && ch <= dmx.Channels {
		tilt = u[ch-1]
	}

	return [6]byte{get(dmx.ChannelRed), get(dmx.ChannelGreen), get(dmx.ChannelBlue), intensity, pan, tilt}
}
