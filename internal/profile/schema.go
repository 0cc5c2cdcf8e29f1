package profile

import (
	_ "embed"
	"fmt"
	"sync"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed replica_profiles_v1.0.0.json
var schemaV1Bytes []byte

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	if len(schemaV1Bytes) == 0 {
		return nil, replicaerrors.NewConfigError("embedded schema 'replica_profiles_v1.0.0.json' is empty", nil)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1Bytes))
	if err != nil {
		return nil, replicaerrors.NewConfigError("failed to compile embedded schema 'replica_profiles_v1.0.0.json'", err)
	}
	return schema, nil
})

// ValidateWithSchema checks a profiles YAML document against the embedded
// v1.0.0 JSON schema.
func ValidateWithSchema(documentYAML []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}

	// gojsonschema walks generic JSON-like values.
	var doc interface{}
	if err := yaml.Unmarshal(documentYAML, &doc); err != nil {
		return replicaerrors.NewConfigError("failed to parse profiles YAML for schema validation", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return replicaerrors.NewConfigError("schema validation process failed", err)
	}
	if result.Valid() {
		return nil
	}

	errMsg := "profiles failed JSON schema validation:"
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" || field == "" {
			field = desc.Context().String()
		}
		errMsg += fmt.Sprintf("\n  - Field '%s': %s", field, desc.Description())
	}
	return replicaerrors.NewValidationError(errMsg, nil)
}
