package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "replica"

// Outcome label values for CloneMetrics.Clones.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CloneMetrics are the collectors updated directly by the engine.
type CloneMetrics struct {
	Clones   *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewCloneMetrics registers the engine collectors in reg. When another
// engine already registered them in the same registry, the existing
// collectors are reused.
func NewCloneMetrics(reg prometheus.Registerer) (*CloneMetrics, error) {
	clones := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clones_total",
		Help:      "Top-level deep clone calls by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "clone_duration_seconds",
		Help:      "Wall time of top-level deep clone calls.",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	})

	c, err := registerOrReuse(reg, clones)
	if err != nil {
		return nil, err
	}
	h, err := registerOrReuse(reg, duration)
	if err != nil {
		return nil, err
	}
	return &CloneMetrics{Clones: c, Duration: h}, nil
}

// FieldCacheStats is satisfied by typeinfo.FieldCache.
type FieldCacheStats interface {
	Stats() (hits, misses int64)
}

// RegisterFieldCache exposes the hit and miss counts of a field metadata
// cache. Registering a second cache under the same names is a no-op.
func RegisterFieldCache(reg prometheus.Registerer, cache FieldCacheStats) error {
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "field_cache_hits_total",
		Help:      "Struct field metadata lookups served from the cache.",
	}, func() float64 {
		h, _ := cache.Stats()
		return float64(h)
	})
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "field_cache_misses_total",
		Help:      "Struct field metadata lookups that computed a new entry.",
	}, func() float64 {
		_, m := cache.Stats()
		return float64(m)
	})
	if _, err := registerOrReuse(reg, hits); err != nil {
		return err
	}
	_, err := registerOrReuse(reg, misses)
	return err
}

// EventCounters are updated from cloner events by events.MetricsEventListener.
type EventCounters struct {
	FinalFieldsSkipped   prometheus.Counter
	ConstructorFallbacks prometheus.Counter
}

// NewEventCounters registers the event-driven counters in reg.
func NewEventCounters(reg prometheus.Registerer) (*EventCounters, error) {
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "final_fields_skipped_total",
		Help:      "Fields tagged final that kept their constructed value.",
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "constructor_fallbacks_total",
		Help:      "Constructors that failed before another candidate was tried.",
	})
	s, err := registerOrReuse(reg, skipped)
	if err != nil {
		return nil, err
	}
	f, err := registerOrReuse(reg, fallbacks)
	if err != nil {
		return nil, err
	}
	return &EventCounters{FinalFieldsSkipped: s, ConstructorFallbacks: f}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}
