package state_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gxo-labs/replica/internal/engine"
	"github.com/gxo-labs/replica/internal/state"
	pubstate "github.com/gxo-labs/replica/pkg/replica/v1/state"
)

func newStore(t *testing.T) *state.MemoryStateStore {
	t.Helper()
	e, err := engine.NewEngine(nil)
	require.NoError(t, err)
	store, err := state.NewMemoryStateStore(e)
	require.NoError(t, err)
	return store
}

func TestNewMemoryStateStore_RequiresCloner(t *testing.T) {
	_, err := state.NewMemoryStateStore(nil)
	assert.Error(t, err)
}

func TestGet_ReturnsIndependentCopy(t *testing.T) {
	store := newStore(t)
	original := map[string]interface{}{
		"list": []interface{}{"a", "b"},
		"nested": map[string]interface{}{
			"count": 1,
		},
	}
	require.NoError(t, store.Set("cfg", original))

	got, ok, err := store.Get("cfg")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original, got)

	cpy := got.(map[string]interface{})
	cpy["list"].([]interface{})[0] = "changed"
	cpy["nested"].(map[string]interface{})["count"] = 99

	assert.Equal(t, "a", original["list"].([]interface{})[0])
	assert.Equal(t, 1, original["nested"].(map[string]interface{})["count"])
}

func TestGet_MissingKey(t *testing.T) {
	store := newStore(t)
	got, ok, err := store.Get("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestGetAll_Unflattens(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("app.name", "demo"))
	require.NoError(t, store.Set("app.limits.cpu", 2))
	require.NoError(t, store.Set("top", true))

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"app": map[string]interface{}{
			"name":   "demo",
			"limits": map[string]interface{}{"cpu": 2},
		},
		"top": true,
	}, all)
}

func TestGetAll_LongerKeyWins(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("a", 1))
	require.NoError(t, store.Set("a.b", 2))

	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": map[string]interface{}{"b": 2}}, all)
}

func TestGetAll_MergesWithoutTouchingStoredMaps(t *testing.T) {
	store := newStore(t)
	stored := map[string]interface{}{"host": "db"}
	require.NoError(t, store.Set("conn", stored))
	require.NoError(t, store.Set("conn.port", 5432))

	for i := 0; i < 10; i++ {
		all, err := store.GetAll()
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{
			"conn": map[string]interface{}{"host": "db", "port": 5432},
		}, all)
	}
	assert.Equal(t, map[string]interface{}{"host": "db"}, stored)
}

func TestGetAll_PreservesSharingAcrossKeys(t *testing.T) {
	store := newStore(t)
	shared := &struct{ N int }{N: 7}
	require.NoError(t, store.Set("x", shared))
	require.NoError(t, store.Set("y", shared))

	all, err := store.GetAll()
	require.NoError(t, err)
	x := all["x"].(*struct{ N int })
	y := all["y"].(*struct{ N int })
	assert.Same(t, x, y)
	assert.NotSame(t, shared, x)
}

func TestDeleteAndLoad(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("k", "v"))
	require.NoError(t, store.Delete("k"))
	assert.ErrorIs(t, store.Delete("k"), pubstate.ErrKeyNotFound)

	data := map[string]interface{}{"x": 1}
	require.NoError(t, store.Load(data))
	data["y"] = 2
	_, ok, err := store.Get("y")
	require.NoError(t, err)
	assert.False(t, ok, "Load must copy the top-level map")

	require.NoError(t, store.Load(nil))
	all, err := store.GetAll()
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NoError(t, store.Close())
}

func TestConcurrentAccess(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set("shared", map[string]interface{}{"v": []interface{}{1, 2, 3}}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, ok, err := store.Get("shared")
				assert.NoError(t, err)
				assert.True(t, ok)
				got.(map[string]interface{})["v"] = i
				_ = store.Set("other", j)
			}
		}(i)
	}
	wg.Wait()

	got, _, err := store.Get("shared")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"v": []interface{}{1, 2, 3}}, got)
}
