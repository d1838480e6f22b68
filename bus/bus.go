// Package bus is the single-writer staged frame buffer that sits between
// the blender and the DMX publisher. The blender stages as many per-light
// updates as it likes during a tick; one CommitFrame call moves them into
// the published map atomically and notifies subscribers.
package bus

import "github.com/NullCarrierNC/photonics-dmx-sub002/color"

// Subscriber is called once per committed frame with the published map.
// Implementations must treat the map as immutable - it is published by
// reference.
type Subscriber func(frame map[string]color.Sample)

// Bus is the staged, single-writer frame buffer of final per-light colors.
type Bus struct {
	staged      map[string]color.Sample
	published   map[string]color.Sample
	subscribers map[int]Subscriber
	nextID      int
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{
		staged:      make(map[string]color.Sample),
		published:   make(map[string]color.Sample),
		subscribers: make(map[int]Subscriber),
	}
}

// Stage records a light's color for the frame currently being built. May be
// called any number of times per tick; later calls for the same light
// overwrite earlier ones within the same uncommitted frame.
func (b *Bus) Stage(lightID string, c color.Sample) {
	b.staged[lightID] = c
}

// CommitFrame atomically moves every staged value into the published map
// and notifies subscribers with the new map reference. A commit with
// nothing staged is a no-op - no notification fires and the previously
// published map is left untouched.
func (b *Bus) CommitFrame() {
	if len(b.staged) == 0 {
		return
	}

	next := make(map[string]color.Sample, len(b.published)+len(b.staged))
	for k, v := range b.published {
		next[k] = v
	}
	for k, v := range b.staged {
		next[k] = v
	}
	b.published = next

	for k := range b.staged {
		delete(b.staged, k)
	}

	for _, sub := range b.subscribers {
		sub(b.published)
	}
}

// Published returns the most recently committed frame, by reference.
// Callers must not mutate it.
func (b *Bus) Published() map[string]color.Sample {
	return b.published
}

// Subscribe registers a callback invoked after every commit. It returns a
// token that can be passed to Unsubscribe.
func (b *Bus) Subscribe(sub Subscriber) int {
	id := b.nextID
	b.nextID++
	b.subscribers[id] = sub
	return id
}

// Unsubscribe removes a previously registered subscriber.
func (b *Bus) Unsubscribe(token int) {
	delete(b.subscribers, token)
}
