// Package config holds the per-call clone configuration: the set of field
// names whose values are not copied.
package config

import (
	"strings"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

// Config is an immutable clone configuration. A nil *Config behaves like
// Empty().
type Config struct {
	names    []string
	excluded map[string]struct{}
}

var empty = &Config{excluded: map[string]struct{}{}}

// Empty returns the configuration that excludes nothing.
func Empty() *Config { return empty }

// IsExcluded reports whether fields named name are left at their
// constructed value. Names match the Go field name exactly, on every type.
func (c *Config) IsExcluded(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.excluded[name]
	return ok
}

// ExcludedFields returns the excluded names in the order they were added.
func (c *Config) ExcludedFields() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of excluded names.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Builder accumulates excluded field names. The first invalid name makes
// the builder fail; later calls are ignored and Build reports that error.
type Builder struct {
	names []string
	seen  map[string]struct{}
	err   error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// ExcludeField adds name to the excluded set. Empty or blank names are
// rejected.
func (b *Builder) ExcludeField(name string) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(name) == "" {
		b.err = replicaerrors.NewInvalidConfigurationError("field name", "cannot be null or empty")
		return b
	}
	if _, dup := b.seen[name]; dup {
		return b
	}
	b.seen[name] = struct{}{}
	b.names = append(b.names, name)
	return b
}

// ExcludeFields adds every name in order, stopping at the first invalid one.
func (b *Builder) ExcludeFields(names ...string) *Builder {
	for _, n := range names {
		b.ExcludeField(n)
	}
	return b
}

// Build returns the configuration, or the first error recorded while adding
// names.
func (b *Builder) Build() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := &Config{
		names:    make([]string, len(b.names)),
		excluded: make(map[string]struct{}, len(b.names)),
	}
	copy(cfg.names, b.names)
	for _, n := range b.names {
		cfg.excluded[n] = struct{}{}
	}
	return cfg, nil
}

// Exclude is shorthand for NewBuilder().ExcludeFields(names...).Build().
func Exclude(names ...string) (*Config, error) {
	if len(names) == 0 {
		return Empty(), nil
	}
	return NewBuilder().ExcludeFields(names...).Build()
}
