package typeinfo

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// TagName is the struct tag key read by the field walker.
//
//	clone:"-"        the field is ephemeral and never copied
//	clone:"final"    a non-zero constructed value is kept
//	clone:"shallow"  the reference is copied without recursion
const TagName = "clone"

// FieldDescriptor describes one state-carrying field of a struct type,
// including fields promoted from embedded structs.
type FieldDescriptor struct {
	Name string
	// Index is the path for reflect.Value.FieldByIndex from the outermost
	// struct.
	Index         []int
	Type          reflect.Type
	DeclaringType reflect.Type
	Exported      bool
	Final         bool
	Shallow       bool
}

// DefaultClassifier and DefaultFieldCache live for the whole process and
// are shared by every cloner that is not given its own scalar types.
var (
	DefaultClassifier = NewClassifier(nil)
	DefaultFieldCache = NewFieldCache(DefaultClassifier)
)

// FieldCache computes and memoizes the FieldDescriptors of struct types.
// Entries are computed once per type and never invalidated; concurrent
// first lookups may compute the list twice but only one is published.
type FieldCache struct {
	classifier *Classifier
	entries    sync.Map // reflect.Type -> []FieldDescriptor
	hits       atomic.Int64
	misses     atomic.Int64
}

// NewFieldCache returns an empty cache. classifier decides which embedded
// structs are expanded in place.
func NewFieldCache(classifier *Classifier) *FieldCache {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &FieldCache{classifier: classifier}
}

// Fields returns the descriptors for struct type t in declaration order.
// The returned slice is shared and must not be modified.
func (fc *FieldCache) Fields(t reflect.Type) []FieldDescriptor {
	if v, ok := fc.entries.Load(t); ok {
		fc.hits.Add(1)
		return v.([]FieldDescriptor)
	}
	fc.misses.Add(1)
	computed := fc.walk(t, nil, nil)
	actual, _ := fc.entries.LoadOrStore(t, computed)
	return actual.([]FieldDescriptor)
}

// Stats returns the number of cache hits and misses so far.
func (fc *FieldCache) Stats() (hits, misses int64) {
	return fc.hits.Load(), fc.misses.Load()
}

// Len returns the number of cached types.
func (fc *FieldCache) Len() int {
	n := 0
	fc.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// walk collects the fields of t. Embedded composite structs are expanded in
// place, which flattens the chain of embedded types into one list.
func (fc *FieldCache) walk(t reflect.Type, prefix []int, out []FieldDescriptor) []FieldDescriptor {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" {
			continue
		}
		opts := parseTag(sf.Tag.Get(TagName))
		if opts.skip || isSyncType(sf.Type) {
			continue
		}
		index := make([]int, len(prefix)+1)
		copy(index, prefix)
		index[len(prefix)] = i

		if sf.Anonymous && !opts.shallow && sf.Type.Kind() == reflect.Struct &&
			fc.classifier.Classify(sf.Type) == Composite {
			out = fc.walk(sf.Type, index, out)
			continue
		}
		out = append(out, FieldDescriptor{
			Name:          sf.Name,
			Index:         index,
			Type:          sf.Type,
			DeclaringType: t,
			Exported:      sf.IsExported(),
			Final:         opts.final,
			Shallow:       opts.shallow,
		})
	}
	return out
}

type tagOptions struct {
	skip, final, shallow bool
}

func parseTag(tag string) tagOptions {
	var o tagOptions
	if tag == "" {
		return o
	}
	for _, part := range strings.Split(tag, ",") {
		switch strings.TrimSpace(part) {
		case "-":
			o.skip = true
		case "final":
			o.final = true
		case "shallow":
			o.shallow = true
		}
	}
	return o
}

// isSyncType reports whether t (or the type it points to) is process-local
// synchronization state from package sync or sync/atomic.
func isSyncType(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.PkgPath() {
	case "sync", "sync/atomic":
		return true
	}
	return false
}
