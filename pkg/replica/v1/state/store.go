package state

import (
	"errors"
)

// ErrKeyNotFound indicates that a requested key does not exist in the store.
var ErrKeyNotFound = errors.New("key not found in state store")

// StateReader is the read side of a snapshot store. Implementations must be
// thread-safe.
//
// Values handed out are deep clones, so callers may modify them freely
// without affecting the store or other readers.
type StateReader interface {
	// Get returns a deep clone of the value stored under key. ok is false
	// when the key does not exist. err reports a value that could not be
	// cloned.
	Get(key string) (value interface{}, ok bool, err error)

	// GetAll returns a deep clone of the whole store with dotted keys
	// ("a.b.c") expanded into nested maps.
	GetAll() (map[string]interface{}, error)
}

// Store is a snapshot store with write access. Implementations must be
// thread-safe.
type Store interface {
	StateReader

	// Set stores value under key by reference. It is cloned on read.
	Set(key string, value interface{}) error

	// Delete removes key. It returns ErrKeyNotFound if key does not exist.
	Delete(key string) error

	// Load replaces the contents of the store with a shallow copy of data.
	Load(data map[string]interface{}) error

	// Close releases any resources held by the store.
	Close() error
}
