package sink

import (
	"context"
	"sync"

	"github.com/NullCarrierNC/photonics-dmx-sub002/dmx"
)

// InProcessSink is a test double that records every universe it receives
// and can be configured to fail on demand, used to exercise Fanout's
// per-sink error isolation without a real transport.
type InProcessSink struct {
	mu       sync.Mutex
	received []dmx.Universe
	failWith error
}

// NewInProcessSink returns an InProcessSink that always succeeds until
// AlwaysFail is used.
func NewInProcessSink() *InProcessSink {
	return &InProcessSink{}
}

// AlwaysFail makes every subsequent Send return err.
func (s *InProcessSink) AlwaysFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Send records u, or returns the configured failure.
func (s *InProcessSink) Send(_ context.Context, u dmx.Universe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.received = append(s.received, u)
	return nil
}

// Received returns every universe successfully recorded so far.
func (s *InProcessSink) Received() []dmx.Universe {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dmx.Universe, len(s.received))
	copy(out, s.received)
	return out
}
