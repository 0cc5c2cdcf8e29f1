package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxo-labs/replica/pkg/replica/v1/config"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
)

func TestBuilder(t *testing.T) {
	testCases := []struct {
		name      string
		fields    []string
		expected  []string
		expectErr bool
	}{
		{name: "empty", fields: nil, expected: []string{}},
		{name: "single", fields: []string{"Password"}, expected: []string{"Password"}},
		{name: "keeps order", fields: []string{"b", "a", "c"}, expected: []string{"b", "a", "c"}},
		{name: "drops duplicates", fields: []string{"a", "b", "a"}, expected: []string{"a", "b"}},
		{name: "empty name", fields: []string{"a", ""}, expectErr: true},
		{name: "blank name", fields: []string{"   "}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.NewBuilder().ExcludeFields(tc.fields...).Build()
			if tc.expectErr {
				require.Error(t, err)
				assert.True(t, replicaerrors.IsInvalidConfiguration(err))
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, cfg.ExcludedFields())
			assert.Equal(t, len(tc.expected), cfg.Len())
			for _, f := range tc.expected {
				assert.True(t, cfg.IsExcluded(f))
			}
		})
	}
}

func TestBuilder_FirstErrorSticks(t *testing.T) {
	b := config.NewBuilder().ExcludeField("").ExcludeField("Valid")
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field name")
	assert.Contains(t, err.Error(), "cannot be null or empty")
}

func TestConfig_IsCaseSensitive(t *testing.T) {
	cfg, err := config.Exclude("Name")
	require.NoError(t, err)
	assert.True(t, cfg.IsExcluded("Name"))
	assert.False(t, cfg.IsExcluded("name"))
}

func TestConfig_NilAndEmpty(t *testing.T) {
	var nilCfg *config.Config
	assert.False(t, nilCfg.IsExcluded("x"))
	assert.Nil(t, nilCfg.ExcludedFields())
	assert.Zero(t, nilCfg.Len())

	cfg, err := config.Exclude()
	require.NoError(t, err)
	assert.Same(t, config.Empty(), cfg)
	assert.Zero(t, cfg.Len())
}

func TestConfig_ExcludedFieldsIsACopy(t *testing.T) {
	cfg, err := config.Exclude("a", "b")
	require.NoError(t, err)
	names := cfg.ExcludedFields()
	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, cfg.ExcludedFields())
}
