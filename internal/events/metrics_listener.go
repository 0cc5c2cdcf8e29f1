package events

import (
	"context"

	"github.com/gxo-labs/replica/internal/metrics"
	"github.com/gxo-labs/replica/pkg/replica/v1/events"
	replicalog "github.com/gxo-labs/replica/pkg/replica/v1/log"
)

// MetricsEventListener consumes a ChannelEventBus and turns cloner events
// into Prometheus counter increments.
type MetricsEventListener struct {
	bus      *ChannelEventBus
	log      replicalog.Logger
	counters *metrics.EventCounters
}

// NewMetricsEventListener panics if any dependency is nil.
func NewMetricsEventListener(bus *ChannelEventBus, counters *metrics.EventCounters, log replicalog.Logger) *MetricsEventListener {
	if bus == nil || counters == nil || log == nil {
		panic("MetricsEventListener requires a non-nil ChannelEventBus, EventCounters and Logger")
	}
	return &MetricsEventListener{
		bus:      bus,
		log:      log.With("component", "MetricsEventListener"),
		counters: counters,
	}
}

// Start consumes events until the bus is closed or ctx is done. It blocks;
// run it in its own goroutine.
func (l *MetricsEventListener) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-l.bus.GetChannel():
			if !ok {
				l.log.Debugf("Event bus channel closed, stopping listener.")
				return
			}
			l.handleEvent(event)
		case <-ctx.Done():
			l.log.Debugf("Context cancelled, stopping metrics event listener.")
			return
		}
	}
}

func (l *MetricsEventListener) handleEvent(event events.Event) {
	switch event.Type {
	case events.FinalFieldSkipped:
		l.counters.FinalFieldsSkipped.Inc()
	case events.ConstructorFallback:
		l.counters.ConstructorFallbacks.Inc()
	}
}
