package state

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	replica "github.com/gxo-labs/replica/pkg/replica/v1"
	replicaerrors "github.com/gxo-labs/replica/pkg/replica/v1/errors"
	"github.com/gxo-labs/replica/pkg/replica/v1/state"
)

// MemoryStateStore implements state.Store with a map guarded by a
// sync.RWMutex. Reads return deep clones made by the injected cloner.
type MemoryStateStore struct {
	data   map[string]interface{}
	mu     sync.RWMutex
	cloner replica.ClonerV1
}

// NewMemoryStateStore returns an empty store cloning through cloner.
func NewMemoryStateStore(cloner replica.ClonerV1) (*MemoryStateStore, error) {
	if cloner == nil {
		return nil, replicaerrors.NewConfigError("state store requires a cloner", nil)
	}
	return &MemoryStateStore{
		data:   make(map[string]interface{}),
		cloner: cloner,
	}, nil
}

// Get returns a deep clone of the value under key.
func (s *MemoryStateStore) Get(key string) (interface{}, bool, error) {
	s.mu.RLock()
	val, exists := s.data[key]
	s.mu.RUnlock()
	if !exists {
		return nil, false, nil
	}
	cpy, err := s.cloner.Clone(context.Background(), val, nil)
	if err != nil {
		return nil, true, err
	}
	return cpy, true, nil
}

// GetAll expands dotted keys into nested maps and clones the result as one
// graph, so values shared between keys stay shared in the snapshot.
func (s *MemoryStateStore) GetAll() (map[string]interface{}, error) {
	s.mu.RLock()
	flatData := maps.Clone(s.data)
	s.mu.RUnlock()

	nested := unflatten(flatData)
	cpy, err := s.cloner.Clone(context.Background(), nested, nil)
	if err != nil {
		return nil, err
	}
	return cpy.(map[string]interface{}), nil
}

// unflatten converts {"a.b": 1} into {"a": {"b": 1}}. Keys are applied in
// sorted order, so a shorter key is always overwritten or extended by the
// longer keys below it. Stored maps are copied before keys are merged into
// them.
func unflatten(flatData map[string]interface{}) map[string]interface{} {
	nestedMap := make(map[string]interface{})
	owned := map[uintptr]bool{mapID(nestedMap): true}
	keys := make([]string, 0, len(flatData))
	for key := range flatData {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		currentMap := nestedMap
		for _, part := range parts[:len(parts)-1] {
			next, ok := currentMap[part].(map[string]interface{})
			switch {
			case !ok || next == nil:
				next = make(map[string]interface{})
			case !owned[mapID(next)]:
				next = maps.Clone(next)
			}
			owned[mapID(next)] = true
			currentMap[part] = next
			currentMap = next
		}
		currentMap[parts[len(parts)-1]] = flatData[key]
	}
	return nestedMap
}

func mapID(m map[string]interface{}) uintptr {
	return reflect.ValueOf(m).Pointer()
}

// Set stores value by reference.
func (s *MemoryStateStore) Set(key string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes key, returning state.ErrKeyNotFound if it is absent.
func (s *MemoryStateStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; !exists {
		return state.ErrKeyNotFound
	}
	delete(s.data, key)
	return nil
}

// Load replaces the contents with a shallow copy of data.
func (s *MemoryStateStore) Load(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = maps.Clone(data)
	if s.data == nil {
		s.data = make(map[string]interface{})
	}
	return nil
}

// Close is a no-op.
func (s *MemoryStateStore) Close() error {
	return nil
}

var _ state.Store = (*MemoryStateStore)(nil)
