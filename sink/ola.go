package sink

import (
	"context"
	"fmt"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
	"github.com/nickysemenza/gola"
)

// olaClient is the subset of *gola.Client this package depends on, mirroring
// fixture.OLAClient from the teacher so OLASink stays mockable in tests.
type olaClient interface {
	SendDmx(universe int, values []byte) (bool, error)
	Close()
}

// OLASink publishes a universe to the Open Lighting Architecture daemon
// over its RPC protocol, grounded on the teacher's fixture.SendDMXWorker
// and main.go's gola.New("localhost:9010") wiring.
type OLASink struct {
	client     olaClient
	universeID int
}

// NewOLASink dials OLA at addr (e.g. "localhost:9010") and returns a sink
// publishing to universeID.
func NewOLASink(addr string, universeID int) (*OLASink, error) {
	client, err := gola.New(addr)
	if err != nil {
		return nil, fmt.Errorf("sink: connecting to OLA at %s: %w", addr, err)
	}
	return &OLASink{client: client, universeID: universeID}, nil
}

// Send writes u's 512 channels to the configured OLA universe.
func (s *OLASink) Send(_ context.Context, u dmx.Universe) error {
	ok, err := s.client.SendDmx(s.universeID, u[:])
	if err != nil {
		return fmt.Errorf("sink: ola send failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("sink: ola rejected universe %d", s.universeID)
	}
	return nil
}

// Close releases the underlying OLA RPC connection.
func (s *OLASink) Close() {
	s.client.Close()
}
