package metrics

import (
	replicametrics "github.com/gxo-labs/replica/pkg/replica/v1/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRegistryProvider implements metrics.RegistryProvider with its
// own Prometheus registry.
type PrometheusRegistryProvider struct {
	registry *prometheus.Registry
}

// NewPrometheusRegistryProvider returns a provider with a fresh registry.
func NewPrometheusRegistryProvider() *PrometheusRegistryProvider {
	return &PrometheusRegistryProvider{registry: prometheus.NewRegistry()}
}

// Registry returns the underlying registry.
func (p *PrometheusRegistryProvider) Registry() *prometheus.Registry {
	return p.registry
}

var _ replicametrics.RegistryProvider = (*PrometheusRegistryProvider)(nil)
