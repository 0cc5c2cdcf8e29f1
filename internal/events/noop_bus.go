package events

import "github.com/gxo-labs/replica/pkg/replica/v1/events"

// NoOpEventBus discards every event. It is the default bus, and the engine
// skips building events altogether when it sees one.
type NoOpEventBus struct{}

func NewNoOpEventBus() events.Bus {
	return &NoOpEventBus{}
}

func (n *NoOpEventBus) Emit(events.Event) {}

var _ events.Bus = (*NoOpEventBus)(nil)
