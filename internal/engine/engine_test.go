package engine_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"

	intConstruct "github.com/gxo-labs/replica/internal/construct"
	"github.com/gxo-labs/replica/internal/engine"
	intEvents "github.com/gxo-labs/replica/internal/events"
	"github.com/gxo-labs/replica/internal/logger"
	intMetrics "github.com/gxo-labs/replica/internal/metrics"
	v1 "github.com/gxo-labs/replica/pkg/replica/v1"
	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"github.com/gxo-labs/replica/pkg/replica/v1/events"
)

type document struct {
	Title string
	Tags  []string
}

type stamped struct {
	Kind string `clone:"final"`
	Body string
}

type resource struct {
	Name string
}

// recordingProvider hands out SDK tracers whose spans end up in a recorder.
type recordingProvider struct {
	tp *sdktrace.TracerProvider
}

func newRecordingProvider() (*recordingProvider, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	return &recordingProvider{tp: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))}, rec
}

func (p *recordingProvider) GetTracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	return p.tp.Tracer(name, opts...)
}

func (p *recordingProvider) Shutdown(ctx context.Context) error { return p.tp.Shutdown(ctx) }

func drain(bus *intEvents.ChannelEventBus) []events.Event {
	var out []events.Event
	for {
		select {
		case ev := <-bus.GetChannel():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func familyNames(t *testing.T, reg *prometheus.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	return names
}

func TestNewEngine_Defaults(t *testing.T) {
	e, err := engine.NewEngine(nil)
	require.NoError(t, err)
	assert.NotNil(t, e.MetricsRegistryProvider())
	assert.NotNil(t, e.TracerProvider())
	assert.NotNil(t, e.FieldCache())

	out, err := e.Clone(context.Background(), document{Title: "t", Tags: []string{"a"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, document{Title: "t", Tags: []string{"a"}}, out)
}

func TestNewEngine_OptionErrors(t *testing.T) {
	testCases := []struct {
		name string
		opt  v1.ClonerOption
	}{
		{"nil logger", v1.WithLogger(nil)},
		{"nil event bus", v1.WithEventBus(nil)},
		{"nil metrics provider", v1.WithMetricsRegistryProvider(nil)},
		{"nil tracer provider", v1.WithTracerProvider(nil)},
		{"nil constructor registry", v1.WithConstructorRegistry(nil)},
		{"nil scalar type", v1.WithScalarTypes(nil)},
		{"nil default config", v1.WithDefaultConfig(nil)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := engine.NewEngine(nil, tc.opt)
			require.Error(t, err)
			assert.Nil(t, e)
			var configErr *replicaerrors.ConfigError
			assert.True(t, errors.As(err, &configErr))
		})
	}
}

func TestEngine_CloneNil(t *testing.T) {
	e, err := engine.NewEngine(nil)
	require.NoError(t, err)
	out, err := e.Clone(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestEngine_EmitsLifecycleEvents(t *testing.T) {
	log := logger.NewDiscardLogger()
	bus := intEvents.NewChannelEventBus(16, log)
	e, err := engine.NewEngine(log, v1.WithEventBus(bus))
	require.NoError(t, err)

	_, err = e.Clone(context.Background(), &document{Title: "x"}, nil)
	require.NoError(t, err)

	evs := drain(bus)
	require.Equal(t, []events.EventType{events.CloneStarted, events.CloneCompleted}, eventTypes(evs))
	assert.NotEmpty(t, evs[0].CloneID)
	assert.Equal(t, evs[0].CloneID, evs[1].CloneID)
	assert.Equal(t, "*engine_test.document", evs[0].TypeName)
	assert.Contains(t, evs[1].Payload, "duration_ms")

	_, err = e.Clone(context.Background(), &document{Title: "y"}, nil)
	require.NoError(t, err)
	next := drain(bus)
	require.Len(t, next, 2)
	assert.NotEqual(t, evs[0].CloneID, next[0].CloneID)
}

func TestEngine_FailureEventsAndMetrics(t *testing.T) {
	reg := intConstruct.NewStaticRegistry()
	require.NoError(t, reg.Register(func(name string) (*resource, error) {
		return nil, errors.New("name required")
	}))
	log := logger.NewDiscardLogger()
	bus := intEvents.NewChannelEventBus(16, log)
	provider := intMetrics.NewPrometheusRegistryProvider()
	e, err := engine.NewEngine(log,
		v1.WithEventBus(bus),
		v1.WithConstructorRegistry(reg),
		v1.WithMetricsRegistryProvider(provider),
	)
	require.NoError(t, err)

	_, err = e.Clone(context.Background(), []*resource{{Name: "r"}}, nil)
	require.Error(t, err)
	assert.True(t, replicaerrors.IsUninstantiable(err))

	evs := drain(bus)
	require.Equal(t,
		[]events.EventType{events.CloneStarted, events.ConstructorFallback, events.CloneFailed},
		eventTypes(evs))
	assert.Equal(t, "func(string) (*engine_test.resource, error)", evs[1].Payload["constructor"])
	assert.Equal(t, "name required", evs[1].Payload["error"])
	assert.Contains(t, evs[2].Payload["error"], "[0]")

	_, err = e.Clone(context.Background(), document{Title: "ok"}, nil)
	require.NoError(t, err)

	registry := provider.Registry()
	assert.Equal(t, 1.0, counterValue(t, registry, "replica_clones_total", intMetrics.OutcomeFailure))
	assert.Equal(t, 1.0, counterValue(t, registry, "replica_clones_total", intMetrics.OutcomeSuccess))
	assert.Subset(t, familyNames(t, registry), []string{
		"replica_clones_total",
		"replica_clone_duration_seconds",
		"replica_field_cache_hits_total",
		"replica_field_cache_misses_total",
	})
}

func TestEngine_FinalFieldEvent(t *testing.T) {
	reg := intConstruct.NewStaticRegistry()
	require.NoError(t, reg.Register(func() stamped { return stamped{Kind: "fixed"} }))
	log := logger.NewDiscardLogger()
	bus := intEvents.NewChannelEventBus(16, log)
	e, err := engine.NewEngine(log, v1.WithEventBus(bus), v1.WithConstructorRegistry(reg))
	require.NoError(t, err)

	out, err := e.Clone(context.Background(), stamped{Kind: "orig", Body: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, stamped{Kind: "fixed", Body: "b"}, out)

	evs := drain(bus)
	require.Equal(t,
		[]events.EventType{events.CloneStarted, events.FinalFieldSkipped, events.CloneCompleted},
		eventTypes(evs))
	assert.Equal(t, "Kind", evs[1].Payload["field"])
	assert.Equal(t, "engine_test.stamped", evs[1].TypeName)
}

func TestEngine_MetricsEventListener(t *testing.T) {
	reg := intConstruct.NewStaticRegistry()
	require.NoError(t, reg.Register(func() stamped { return stamped{Kind: "fixed"} }))
	log := logger.NewDiscardLogger()
	bus := intEvents.NewChannelEventBus(16, log)
	provider := intMetrics.NewPrometheusRegistryProvider()
	e, err := engine.NewEngine(log,
		v1.WithEventBus(bus),
		v1.WithConstructorRegistry(reg),
		v1.WithMetricsRegistryProvider(provider),
	)
	require.NoError(t, err)

	counters, err := intMetrics.NewEventCounters(provider.Registry())
	require.NoError(t, err)
	listener := intEvents.NewMetricsEventListener(bus, counters, log)

	_, err = e.Clone(context.Background(), stamped{Kind: "orig"}, nil)
	require.NoError(t, err)
	bus.Close()
	listener.Start(context.Background())

	families, err := provider.Registry().Gather()
	require.NoError(t, err)
	var skipped float64
	for _, mf := range families {
		if mf.GetName() == "replica_final_fields_skipped_total" {
			skipped = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, skipped)
}

func TestEngine_SharedRegistry(t *testing.T) {
	provider := intMetrics.NewPrometheusRegistryProvider()
	_, err := engine.NewEngine(nil, v1.WithMetricsRegistryProvider(provider))
	require.NoError(t, err)
	_, err = engine.NewEngine(nil, v1.WithMetricsRegistryProvider(provider))
	require.NoError(t, err, "a second engine reuses the registered collectors")
}

func TestEngine_Spans(t *testing.T) {
	tp, rec := newRecordingProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	cfg, err := config.Exclude("Tags")
	require.NoError(t, err)
	e, err := engine.NewEngine(nil, v1.WithTracerProvider(tp), v1.WithDefaultConfig(cfg))
	require.NoError(t, err)

	out, err := e.Clone(context.Background(), document{Title: "t", Tags: []string{"x"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, document{Title: "t"}, out, "default configuration applies when none is passed")

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "replica.Clone", spans[0].Name())
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "engine_test.document", attrs["replica.type"])
	assert.NotEmpty(t, attrs["replica.clone_id"])
	assert.Contains(t, attrs["replica.excluded_fields"], "Tags")

	reg := intConstruct.NewStaticRegistry()
	require.NoError(t, reg.Register(func() (*resource, error) { return nil, errors.New("boom") }))
	failing, err := engine.NewEngine(nil, v1.WithTracerProvider(tp), v1.WithConstructorRegistry(reg))
	require.NoError(t, err)
	_, err = failing.Clone(context.Background(), &resource{}, nil)
	require.Error(t, err)

	spans = rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.NotEmpty(t, spans[1].Events())
}

func TestEngine_ScalarTypesArePrivate(t *testing.T) {
	e, err := engine.NewEngine(nil, v1.WithScalarTypes(reflect.TypeFor[*document]()))
	require.NoError(t, err)

	src := &document{Title: "shared"}
	out, err := e.Clone(context.Background(), src, nil)
	require.NoError(t, err)
	assert.Same(t, src, out)

	def, err := engine.NewEngine(nil)
	require.NoError(t, err)
	out, err = def.Clone(context.Background(), src, nil)
	require.NoError(t, err)
	assert.NotSame(t, src, out)
}
