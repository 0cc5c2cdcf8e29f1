package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

func TestCloneError(t *testing.T) {
	cause := replicaerrors.NewUninstantiableTypeError("app.Conn", []string{"func(string) *app.Conn"}, errors.New("dial failed"))
	err := replicaerrors.NewCloneError("*app.Pool", "Conns[2]", cause)

	assert.Equal(t,
		"failed to deep clone object of type: *app.Pool at 'Conns[2]': no usable constructor found for: app.Conn. "+
			"Available constructors: [func(string) *app.Conn]: last failure: dial failed",
		err.Error())
	assert.True(t, replicaerrors.IsUninstantiable(err))
	assert.False(t, replicaerrors.IsCycleState(err))

	wrapped := fmt.Errorf("outer: %w", err)
	var ce *replicaerrors.CloneError
	assert.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, "Conns[2]", ce.FieldPath)
}

func TestCloneError_RootPath(t *testing.T) {
	err := replicaerrors.NewCloneError("int", "", errors.New("boom"))
	assert.Equal(t, "failed to deep clone object of type: int: boom", err.Error())
}

func TestErrorHelpers(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"invalid configuration", replicaerrors.NewInvalidConfigurationError("field name", "cannot be null or empty"), replicaerrors.IsInvalidConfiguration},
		{"uninstantiable", replicaerrors.NewUninstantiableTypeError("T", nil, nil), replicaerrors.IsUninstantiable},
		{"field access", replicaerrors.NewFieldAccessError("T", "f", nil), replicaerrors.IsFieldAccess},
		{"cycle state", replicaerrors.NewCycleStateError("*T", "*U"), replicaerrors.IsCycleState},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.check(tc.err))
			assert.True(t, tc.check(replicaerrors.NewCloneError("Root", "x", tc.err)))
			assert.False(t, tc.check(errors.New("other")))
		})
	}
}

func TestConfigAndValidationErrors(t *testing.T) {
	cause := errors.New("bad yaml")
	cfgErr := replicaerrors.NewConfigError("failed to parse", cause)
	assert.Equal(t, "configuration error: failed to parse: bad yaml", cfgErr.Error())
	assert.ErrorIs(t, cfgErr, cause)

	valErr := replicaerrors.NewValidationError("duplicate profile", nil)
	assert.Equal(t, "validation error: duplicate profile", valErr.Error())
}
