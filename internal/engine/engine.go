// Package engine assembles the deep-copy traversal with the ambient
// services around it: logging, events, Prometheus metrics and OpenTelemetry
// spans. Engine is the implementation behind replica.ClonerV1.
package engine

import (
	"context"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gxo-labs/replica/internal/clone"
	intConstruct "github.com/gxo-labs/replica/internal/construct"
	intEvents "github.com/gxo-labs/replica/internal/events"
	intLogger "github.com/gxo-labs/replica/internal/logger"
	intMetrics "github.com/gxo-labs/replica/internal/metrics"
	intTracing "github.com/gxo-labs/replica/internal/tracing"
	"github.com/gxo-labs/replica/internal/typeinfo"
	replica "github.com/gxo-labs/replica/pkg/replica/v1"
	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	"github.com/gxo-labs/replica/pkg/replica/v1/construct"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"github.com/gxo-labs/replica/pkg/replica/v1/events"
	replicalog "github.com/gxo-labs/replica/pkg/replica/v1/log"
	"github.com/gxo-labs/replica/pkg/replica/v1/metrics"
	replicatracing "github.com/gxo-labs/replica/pkg/replica/v1/tracing"
)

// Engine is a configured deep-copy engine. After NewEngine returns it is
// safe for concurrent use.
type Engine struct {
	log             replicalog.Logger
	eventBus        events.Bus
	metricsProvider metrics.RegistryProvider
	tracerProvider  replicatracing.TracerProvider
	ctors           construct.Registry
	scalarTypes     []reflect.Type
	defaultCfg      *config.Config

	classifier *typeinfo.Classifier
	fields     *typeinfo.FieldCache
	cloner     *clone.Cloner
	tracer     oteltrace.Tracer
	traced     bool
	emitting   bool
	metrics    *intMetrics.CloneMetrics
}

var _ replica.ClonerV1 = (*Engine)(nil)

// NewEngine returns an Engine configured by opts. A nil log discards
// everything. Unset services fall back to a NoOp event bus, a private
// Prometheus registry, a NoOp tracer provider and the process-wide
// constructor registry.
func NewEngine(log replicalog.Logger, opts ...replica.ClonerOption) (*Engine, error) {
	if log == nil {
		log = intLogger.NewDiscardLogger()
	}
	e := &Engine{log: log}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, replicaerrors.NewConfigError("failed to apply cloner option", err)
		}
	}

	if e.eventBus == nil {
		e.eventBus = intEvents.NewNoOpEventBus()
	}
	if e.metricsProvider == nil {
		e.metricsProvider = intMetrics.NewPrometheusRegistryProvider()
	}
	if e.tracerProvider == nil {
		tp, err := intTracing.NewNoOpProvider()
		if err != nil {
			return nil, replicaerrors.NewConfigError("failed to create default NoOp tracer provider", err)
		}
		e.tracerProvider = tp
	}
	if e.ctors == nil {
		e.ctors = intConstruct.Default()
	}
	if e.defaultCfg == nil {
		e.defaultCfg = config.Empty()
	}

	if len(e.scalarTypes) == 0 {
		e.classifier = typeinfo.DefaultClassifier
		e.fields = typeinfo.DefaultFieldCache
	} else {
		e.classifier = typeinfo.NewClassifier(typeinfo.NewScalarRegistry(e.scalarTypes...))
		e.fields = typeinfo.NewFieldCache(e.classifier)
	}
	e.cloner = clone.New(e.classifier, e.fields, e.ctors)

	e.tracer = e.tracerProvider.GetTracer(intTracing.TracerName)
	e.traced = true
	if np, ok := e.tracerProvider.(interface{ IsEffectivelyNoOp() bool }); ok && np.IsEffectivelyNoOp() {
		e.traced = false
	}
	_, silent := e.eventBus.(*intEvents.NoOpEventBus)
	e.emitting = !silent

	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	reg := e.metricsProvider.Registry()
	if reg == nil {
		e.log.Warnf("Metrics provider returned a nil registry, cloner metrics disabled.")
		return nil
	}
	m, err := intMetrics.NewCloneMetrics(reg)
	if err != nil {
		return replicaerrors.NewConfigError("failed to register cloner metrics", err)
	}
	if err := intMetrics.RegisterFieldCache(reg, e.fields); err != nil {
		return replicaerrors.NewConfigError("failed to register field cache metrics", err)
	}
	e.metrics = m
	return nil
}

// Clone returns a deep copy of value. A nil value yields nil.
func (e *Engine) Clone(ctx context.Context, value interface{}, cfg *config.Config) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	out, err := e.CloneValue(ctx, reflect.ValueOf(value), cfg)
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// CloneValue returns a deep copy of value with the same static type.
func (e *Engine) CloneValue(ctx context.Context, value reflect.Value, cfg *config.Config) (reflect.Value, error) {
	if !value.IsValid() {
		return value, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = e.defaultCfg
	}
	typeName := value.Type().String()
	cloneID := ""
	if e.emitting || e.traced {
		cloneID = uuid.NewString()
	}

	var span oteltrace.Span
	if e.traced {
		ctx, span = e.tracer.Start(ctx, "replica.Clone", oteltrace.WithAttributes(
			intTracing.AttrType.String(typeName),
			intTracing.AttrExcludedFields.StringSlice(cfg.ExcludedFields()),
			intTracing.AttrCloneID.String(cloneID),
		))
		defer span.End()
	}
	e.emit(events.CloneStarted, cloneID, typeName, nil)

	obs := &callObserver{engine: e, ctx: ctx, cloneID: cloneID}
	start := time.Now()
	out, err := e.cloner.CloneValue(value, cfg, obs)
	elapsed := time.Since(start)

	if e.metrics != nil {
		e.metrics.Duration.Observe(elapsed.Seconds())
	}
	if err != nil {
		e.countOutcome(intMetrics.OutcomeFailure)
		e.log.Errorf("Deep clone of %s failed: %v", typeName, err)
		if span != nil {
			intTracing.RecordError(span, err)
		}
		e.emit(events.CloneFailed, cloneID, typeName, map[string]interface{}{"error": err.Error()})
		return reflect.Value{}, err
	}
	e.countOutcome(intMetrics.OutcomeSuccess)
	e.emit(events.CloneCompleted, cloneID, typeName, map[string]interface{}{"duration_ms": elapsed.Milliseconds()})
	return out, nil
}

func (e *Engine) countOutcome(outcome string) {
	if e.metrics != nil {
		e.metrics.Clones.With(prometheus.Labels{"outcome": outcome}).Inc()
	}
}

func (e *Engine) emit(t events.EventType, cloneID, typeName string, payload map[string]interface{}) {
	if !e.emitting {
		return
	}
	e.eventBus.Emit(events.Event{
		Type:      t,
		Timestamp: time.Now(),
		CloneID:   cloneID,
		TypeName:  typeName,
		Payload:   payload,
	})
}

// MetricsRegistryProvider returns the provider holding cloner metrics.
func (e *Engine) MetricsRegistryProvider() metrics.RegistryProvider { return e.metricsProvider }

// TracerProvider returns the provider spans are created from.
func (e *Engine) TracerProvider() replicatracing.TracerProvider { return e.tracerProvider }

// FieldCache exposes the struct metadata cache the engine clones with.
func (e *Engine) FieldCache() *typeinfo.FieldCache { return e.fields }

func (e *Engine) SetLogger(logger replicalog.Logger) error {
	e.log = logger
	return nil
}

func (e *Engine) SetEventBus(bus events.Bus) error {
	e.eventBus = bus
	return nil
}

func (e *Engine) SetMetricsRegistryProvider(provider metrics.RegistryProvider) error {
	e.metricsProvider = provider
	return nil
}

func (e *Engine) SetTracerProvider(provider replicatracing.TracerProvider) error {
	e.tracerProvider = provider
	return nil
}

func (e *Engine) SetConstructorRegistry(registry construct.Registry) error {
	e.ctors = registry
	return nil
}

func (e *Engine) SetScalarTypes(types []reflect.Type) error {
	e.scalarTypes = append(e.scalarTypes, types...)
	return nil
}

func (e *Engine) SetDefaultConfig(cfg *config.Config) error {
	e.defaultCfg = cfg
	return nil
}

// callObserver forwards traversal notifications of one clone call to the
// log, the span and the event bus.
type callObserver struct {
	engine  *Engine
	ctx     context.Context
	cloneID string
}

func (o *callObserver) FinalFieldSkipped(owner reflect.Type, field string, path string) {
	e := o.engine
	e.log.Debugf("Keeping constructed value of final field %s.%s at '%s'", owner, field, path)
	if e.traced {
		oteltrace.SpanFromContext(o.ctx).AddEvent("final_field_skipped", oteltrace.WithAttributes(
			attribute.String("field", field),
			attribute.String("path", path),
		))
	}
	e.emit(events.FinalFieldSkipped, o.cloneID, owner.String(), map[string]interface{}{
		"field": field,
		"path":  path,
	})
}

func (o *callObserver) ConstructorFallback(t reflect.Type, failure construct.Failure) {
	e := o.engine
	e.log.Warnf("Constructor %s for %s failed, trying next: %v", failure.Signature, t, failure.Err)
	e.emit(events.ConstructorFallback, o.cloneID, t.String(), map[string]interface{}{
		"constructor": failure.Signature,
		"error":       failure.Err.Error(),
	})
}
