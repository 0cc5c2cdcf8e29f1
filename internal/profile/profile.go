// Package profile loads named exclusion profiles from YAML. A profile is a
// reusable list of field names to leave out of a clone, optionally built on
// top of other profiles.
package profile

import (
	"fmt"
	"sort"

	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

// ProfileSet is the top-level document of a profiles file.
type ProfileSet struct {
	SchemaVersion string    `yaml:"schemaVersion"`
	Profiles      []Profile `yaml:"profiles"`

	// FilePath is the source file, when loaded from disk.
	FilePath string `yaml:"-"`
}

// Profile is one named set of excluded fields.
type Profile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	// Extends names profiles whose exclusions are inherited.
	Extends []string `yaml:"extends,omitempty"`
}

// Names returns the profile names in declaration order.
func (s *ProfileSet) Names() []string {
	names := make([]string, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Lookup returns the profile called name.
func (s *ProfileSet) Lookup(name string) (*Profile, bool) {
	for i := range s.Profiles {
		if s.Profiles[i].Name == name {
			return &s.Profiles[i], true
		}
	}
	return nil, false
}

// Fields returns the sorted union of the fields excluded by name and every
// profile it extends, directly or transitively.
func (s *ProfileSet) Fields(name string) ([]string, error) {
	if _, ok := s.Lookup(name); !ok {
		return nil, replicaerrors.NewConfigError(fmt.Sprintf("profile '%s' is not defined", name), nil)
	}
	seen := make(map[string]bool)
	fields := make(map[string]struct{})
	var collect func(string)
	collect = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		p, ok := s.Lookup(n)
		if !ok {
			return
		}
		for _, f := range p.Exclude {
			fields[f] = struct{}{}
		}
		for _, parent := range p.Extends {
			collect(parent)
		}
	}
	collect(name)

	out := make([]string, 0, len(fields))
	for f := range fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// Config resolves the profile called name into a clone configuration.
func (s *ProfileSet) Config(name string) (*config.Config, error) {
	fields, err := s.Fields(name)
	if err != nil {
		return nil, err
	}
	return config.NewBuilder().ExcludeFields(fields...).Build()
}
