package v1

import (
	"context"
	"reflect"

	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	"github.com/gxo-labs/replica/pkg/replica/v1/construct"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"github.com/gxo-labs/replica/pkg/replica/v1/events"
	"github.com/gxo-labs/replica/pkg/replica/v1/log"
	"github.com/gxo-labs/replica/pkg/replica/v1/metrics"
	"github.com/gxo-labs/replica/pkg/replica/v1/tracing"
)

// ClonerV1 is the public interface of the deep-copy engine.
type ClonerV1 interface {
	// Clone returns a deep copy of value. A nil cfg uses the cloner's
	// default configuration.
	Clone(ctx context.Context, value interface{}, cfg *config.Config) (interface{}, error)
	// CloneValue is Clone for reflect values; the result has the static
	// type of value, which may be an interface type.
	CloneValue(ctx context.Context, value reflect.Value, cfg *config.Config) (reflect.Value, error)

	// MetricsRegistryProvider returns the provider holding cloner metrics.
	MetricsRegistryProvider() metrics.RegistryProvider
	// TracerProvider returns the provider spans are created from.
	TracerProvider() tracing.TracerProvider

	// Setters used by ClonerOptions. They are not safe to call while
	// clones are running.
	SetLogger(logger log.Logger) error
	SetEventBus(bus events.Bus) error
	SetMetricsRegistryProvider(provider metrics.RegistryProvider) error
	SetTracerProvider(provider tracing.TracerProvider) error
	SetConstructorRegistry(registry construct.Registry) error
	SetScalarTypes(types []reflect.Type) error
	SetDefaultConfig(cfg *config.Config) error
}

// ClonerOption configures a cloner at creation.
type ClonerOption func(ClonerV1) error

// WithLogger sets the logger.
func WithLogger(logger log.Logger) ClonerOption {
	return func(c ClonerV1) error {
		if logger == nil {
			return replicaerrors.NewConfigError("logger cannot be nil", nil)
		}
		return c.SetLogger(logger)
	}
}

// WithEventBus sets the bus cloner events are emitted on.
func WithEventBus(bus events.Bus) ClonerOption {
	return func(c ClonerV1) error {
		if bus == nil {
			return replicaerrors.NewConfigError("event bus cannot be nil", nil)
		}
		return c.SetEventBus(bus)
	}
}

// WithMetricsRegistryProvider sets where cloner metrics are registered.
func WithMetricsRegistryProvider(provider metrics.RegistryProvider) ClonerOption {
	return func(c ClonerV1) error {
		if provider == nil {
			return replicaerrors.NewConfigError("metrics registry provider cannot be nil", nil)
		}
		return c.SetMetricsRegistryProvider(provider)
	}
}

// WithTracerProvider sets the tracing provider.
func WithTracerProvider(provider tracing.TracerProvider) ClonerOption {
	return func(c ClonerV1) error {
		if provider == nil {
			return replicaerrors.NewConfigError("tracer provider cannot be nil", nil)
		}
		return c.SetTracerProvider(provider)
	}
}

// WithConstructorRegistry replaces the process-wide constructor registry.
func WithConstructorRegistry(registry construct.Registry) ClonerOption {
	return func(c ClonerV1) error {
		if registry == nil {
			return replicaerrors.NewConfigError("constructor registry cannot be nil", nil)
		}
		return c.SetConstructorRegistry(registry)
	}
}

// WithScalarTypes treats the given types as leaf values in addition to the
// defaults. The cloner then keeps its own type caches instead of sharing the
// process-wide ones.
func WithScalarTypes(types ...reflect.Type) ClonerOption {
	return func(c ClonerV1) error {
		for _, t := range types {
			if t == nil {
				return replicaerrors.NewConfigError("scalar type cannot be nil", nil)
			}
		}
		return c.SetScalarTypes(types)
	}
}

// WithDefaultConfig sets the configuration used when a call passes nil.
func WithDefaultConfig(cfg *config.Config) ClonerOption {
	return func(c ClonerV1) error {
		if cfg == nil {
			return replicaerrors.NewConfigError("default configuration cannot be nil", nil)
		}
		return c.SetDefaultConfig(cfg)
	}
}
