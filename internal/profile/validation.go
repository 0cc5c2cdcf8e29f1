package profile

import (
	"fmt"
	"regexp"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

var (
	// Go identifiers, as excluded names match struct field names.
	identifierRegex  = regexp.MustCompile(`^[\p{L}_][\p{L}\p{Nd}_]*$`)
	profileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateProfileSet runs the checks the JSON schema cannot express and
// returns every problem found.
func ValidateProfileSet(s *ProfileSet) []error {
	var errs []error
	if len(s.Profiles) == 0 {
		errs = append(errs, replicaerrors.NewValidationError("profiles file must define at least one profile", nil))
	}

	names := make(map[string]bool, len(s.Profiles))
	for i := range s.Profiles {
		p := &s.Profiles[i]
		display := fmt.Sprintf("profile %d", i)
		if p.Name != "" {
			display = fmt.Sprintf("profile %d ('%s')", i, p.Name)
		}

		switch {
		case p.Name == "":
			errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: 'name' is required", display), nil))
		case !profileNameRegex.MatchString(p.Name):
			errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: name contains invalid characters (allowed: alphanumeric, underscore, hyphen)", display), nil))
		case names[p.Name]:
			errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: duplicate profile name found", display), nil))
		}
		names[p.Name] = true

		if len(p.Exclude) == 0 && len(p.Extends) == 0 {
			errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: must exclude at least one field or extend another profile", display), nil))
		}
		for _, f := range p.Exclude {
			if !identifierRegex.MatchString(f) {
				errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: excluded field '%s' is not a valid identifier", display, f), nil))
			}
		}
		for _, parent := range p.Extends {
			if parent == p.Name {
				errs = append(errs, replicaerrors.NewValidationError(fmt.Sprintf("%s: cannot extend itself", display), nil))
			}
		}
	}

	for _, p := range s.Profiles {
		for _, parent := range p.Extends {
			if !names[parent] {
				errs = append(errs, replicaerrors.NewValidationError(
					fmt.Sprintf("profile '%s' extends '%s', which is not defined", p.Name, parent), nil))
			}
		}
	}

	if err := detectCycle(s); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// detectCycle reports an 'extends' chain that leads back to where it
// started. Self references are reported separately.
func detectCycle(s *ProfileSet) error {
	visited := make(map[string]bool)
	for _, p := range s.Profiles {
		if visited[p.Name] {
			continue
		}
		if cycleAt := hasCycleDFS(s, p.Name, make(map[string]bool), visited); cycleAt != "" {
			return replicaerrors.NewValidationError(fmt.Sprintf("cycle detected in profile inheritance at '%s'", cycleAt), nil)
		}
	}
	return nil
}

func hasCycleDFS(s *ProfileSet, name string, path, visited map[string]bool) string {
	path[name] = true
	visited[name] = true
	defer delete(path, name)

	p, ok := s.Lookup(name)
	if !ok {
		return ""
	}
	for _, parent := range p.Extends {
		if parent == name {
			continue
		}
		if path[parent] {
			return parent
		}
		if !visited[parent] {
			if at := hasCycleDFS(s, parent, path, visited); at != "" {
				return at
			}
		}
	}
	return ""
}
