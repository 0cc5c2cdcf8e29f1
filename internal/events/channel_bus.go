package events

import (
	"github.com/gxo-labs/replica/pkg/replica/v1/events"
	replicalog "github.com/gxo-labs/replica/pkg/replica/v1/log"
)

const defaultBufferSize = 100

// ChannelEventBus implements events.Bus over a buffered channel. Emit never
// blocks: when the buffer is full the event is dropped with a warning.
type ChannelEventBus struct {
	channel chan events.Event
	log     replicalog.Logger
}

// NewChannelEventBus returns a bus buffering up to bufferSize events (100
// when bufferSize is not positive). It panics on a nil logger.
func NewChannelEventBus(bufferSize int, log replicalog.Logger) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if log == nil {
		panic("ChannelEventBus requires a non-nil logger")
	}
	bus := &ChannelEventBus{
		channel: make(chan events.Event, bufferSize),
		log:     log.With("component", "ChannelEventBus"),
	}
	bus.log.Debugf("ChannelEventBus initialized with buffer size %d", bufferSize)
	return bus
}

// Emit queues event, or drops it when the buffer is full.
func (c *ChannelEventBus) Emit(event events.Event) {
	select {
	case c.channel <- event:
	default:
		c.log.Warnf("Event channel buffer full, dropping event type '%s'", event.Type)
	}
}

// GetChannel returns the receive side for in-process listeners.
func (c *ChannelEventBus) GetChannel() <-chan events.Event {
	return c.channel
}

// Close closes the channel. Emit must not be called afterwards.
func (c *ChannelEventBus) Close() {
	close(c.channel)
}

var _ events.Bus = (*ChannelEventBus)(nil)
