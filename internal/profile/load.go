package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaVersionConstraint is the schemaVersion major this release
// accepts.
const SupportedSchemaVersionConstraint = "v1"

// LoadProfiles parses and validates a profiles document. filePathHint is
// only used in error messages.
func LoadProfiles(profilesYAML []byte, filePathHint string) (*ProfileSet, error) {
	if len(bytes.TrimSpace(profilesYAML)) == 0 {
		return nil, replicaerrors.NewConfigError("profiles content cannot be empty", nil)
	}

	if err := ValidateWithSchema(profilesYAML); err != nil {
		return nil, replicaerrors.NewConfigError(fmt.Sprintf("profiles '%s' failed schema validation", filePathHint), err)
	}

	var set ProfileSet
	if err := yamlUnmarshalStrict(profilesYAML, &set); err != nil {
		return nil, replicaerrors.NewConfigError(fmt.Sprintf("failed to parse profiles YAML '%s'", filePathHint), err)
	}
	set.FilePath = filePathHint

	if err := checkSchemaVersion(set.SchemaVersion, filePathHint); err != nil {
		return nil, err
	}

	if errs := ValidateProfileSet(&set); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, replicaerrors.NewValidationError(
			fmt.Sprintf("profiles '%s' have %d validation error(s):\n- %s", filePathHint, len(msgs), strings.Join(msgs, "\n- ")),
			errs[0])
	}
	return &set, nil
}

// LoadProfilesFromFile reads and loads a profiles file.
func LoadProfilesFromFile(filePath string) (*ProfileSet, error) {
	if filePath == "" {
		return nil, replicaerrors.NewConfigError("profiles file path cannot be empty", nil)
	}
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, replicaerrors.NewConfigError(fmt.Sprintf("failed to get absolute path for '%s'", filePath), err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, replicaerrors.NewConfigError(fmt.Sprintf("failed to read profiles file '%s'", absPath), err)
	}
	return LoadProfiles(data, absPath)
}

func checkSchemaVersion(version, filePathHint string) error {
	if version == "" {
		return replicaerrors.NewValidationError(fmt.Sprintf("profiles '%s' are missing required 'schemaVersion' field", filePathHint), nil)
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return replicaerrors.NewValidationError(fmt.Sprintf("profiles '%s' have invalid 'schemaVersion' format: '%s'", filePathHint, version), nil)
	}
	if semver.Major(v) != SupportedSchemaVersionConstraint {
		return replicaerrors.NewValidationError(
			fmt.Sprintf("profiles '%s' schemaVersion '%s' is not compatible with requirement '%s'",
				filePathHint, version, SupportedSchemaVersionConstraint),
			nil)
	}
	return nil
}

// yamlUnmarshalStrict rejects keys that ProfileSet does not declare.
func yamlUnmarshalStrict(in []byte, out interface{}) error {
	decoder := yaml.NewDecoder(bytes.NewReader(in))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("YAML parsing error: %w", err)
	}
	return nil
}
