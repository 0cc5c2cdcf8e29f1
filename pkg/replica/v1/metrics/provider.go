package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider gives access to the Prometheus registry that cloner
// metrics are registered in, so hosts can expose them however they like.
type RegistryProvider interface {
	// Registry returns the registry holding replica metrics.
	Registry() *prometheus.Registry
}
