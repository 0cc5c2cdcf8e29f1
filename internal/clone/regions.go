package clone

import (
	"reflect"
	"sort"
	"unsafe"

	"github.com/gxo-labs/replica/internal/typeinfo"
	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

// Before anything is copied, the source graph is scanned for every block of
// memory reached through a pointer or a slice. Overlapping blocks are merged
// into regions, and each region is cloned as a whole the first time any
// reference into it is met. Every pointer or slice into the same original
// memory then resolves into the same clone, whatever its static type and
// whatever order the references are visited in.

// span is a block of original memory reached through one pointer or slice.
// root is the type laid out at origin. live is the prefix that the
// reference can read: all of it for a pointer, the length for a slice.
type span struct {
	origin unsafe.Pointer
	size   uintptr
	live   uintptr
	root   reflect.Type
}

func (s span) start() uintptr { return uintptr(s.origin) }
func (s span) end() uintptr   { return uintptr(s.origin) + s.size }

// region is the union of overlapping spans. root is nil when the spans do
// not agree on a layout; references into such a region are cloned one by
// one through the identity registry instead.
type region struct {
	span
	reached []interval    // live parts of the region, sorted and disjoint
	clone   reflect.Value // pointer to the cloned root, set on first use
}

type interval struct{ lo, hi uintptr }

func (r *region) reach(sp span) {
	if sp.live == 0 {
		return
	}
	iv := interval{sp.start(), sp.start() + sp.live}
	if n := len(r.reached); n > 0 && iv.lo <= r.reached[n-1].hi {
		r.reached[n-1].hi = max(r.reached[n-1].hi, iv.hi)
		return
	}
	r.reached = append(r.reached, iv)
}

type regionTable []region

// find returns the region holding [addr, addr+size), if any.
func (rt regionTable) find(addr, size uintptr) *region {
	i := sort.Search(len(rt), func(i int) bool { return rt[i].end() > addr })
	if i < len(rt) && rt[i].start() <= addr && addr+size <= rt[i].end() {
		return &rt[i]
	}
	return nil
}

// scanner collects the spans reachable from a value. It follows the same
// fields the copy follows, so every span it records is one the copy meets.
type scanner struct {
	k     *call
	spans []span
	seen  map[span]struct{}
	maps  map[unsafe.Pointer]struct{}
	colls map[unsafe.Pointer]struct{}
}

// scanRegions walks src and returns the merged regions, sorted by address.
func (k *call) scanRegions(src reflect.Value) regionTable {
	if !typeinfo.HasPointers(src.Type()) {
		return nil
	}
	s := &scanner{
		k:     k,
		seen:  make(map[span]struct{}),
		maps:  make(map[unsafe.Pointer]struct{}),
		colls: make(map[unsafe.Pointer]struct{}),
	}
	s.walk(src)
	return merge(s.spans)
}

func (s *scanner) add(sp span) bool {
	if _, ok := s.seen[sp]; ok {
		return false
	}
	s.seen[sp] = struct{}{}
	s.spans = append(s.spans, sp)
	return true
}

func (s *scanner) walk(v reflect.Value) {
	t := v.Type()
	if !typeinfo.HasPointers(t) {
		return
	}
	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			s.walk(v.Elem())
		}
		return
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return
		}
	}
	if s.k.classifier.Classify(t) == typeinfo.Scalar {
		return
	}
	if s.k.classifier.IsCapability(t) {
		s.walkCollection(v)
		return
	}

	switch v.Kind() {
	case reflect.Pointer:
		el := t.Elem()
		if el.Size() == 0 {
			return
		}
		if s.add(span{origin: v.UnsafePointer(), size: el.Size(), live: el.Size(), root: el}) {
			s.walk(v.Elem())
		}
	case reflect.Slice:
		el := t.Elem()
		if v.Cap() == 0 || el.Size() == 0 {
			return
		}
		arr := reflect.ArrayOf(v.Cap(), el)
		sp := span{origin: v.UnsafePointer(), size: arr.Size(), live: uintptr(v.Len()) * el.Size(), root: arr}
		if s.add(sp) && typeinfo.HasPointers(el) {
			for i := 0; i < v.Len(); i++ {
				s.walk(v.Index(i))
			}
		}
	case reflect.Map:
		if _, ok := s.maps[v.UnsafePointer()]; ok {
			return
		}
		s.maps[v.UnsafePointer()] = struct{}{}
		iter := v.MapRange()
		for iter.Next() {
			s.walk(iter.Key())
			s.walk(iter.Value())
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			s.walk(v.Index(i))
		}
	case reflect.Struct:
		v = addressable(v)
		for _, fd := range s.k.fields.Fields(t) {
			if fd.Shallow || s.k.cfg.IsExcluded(fd.Name) {
				continue
			}
			f, err := readable(v.FieldByIndex(fd.Index))
			if err == nil {
				s.walk(f)
			}
		}
	}
}

// walkCollection visits the elements a capability collection hands out.
func (s *scanner) walkCollection(v reflect.Value) {
	if v.Kind() == reflect.Pointer {
		if _, ok := s.colls[v.UnsafePointer()]; ok {
			return
		}
		s.colls[v.UnsafePointer()] = struct{}{}
	}
	if !v.CanInterface() {
		return
	}
	visit := func(e any) {
		if e != nil {
			s.walk(reflect.ValueOf(e))
		}
	}
	switch c := v.Interface().(type) {
	case collections.Sequence:
		c.RangeAny(func(e any) bool { visit(e); return true })
	case collections.Set:
		c.RangeAny(func(e any) bool { visit(e); return true })
	case collections.Map:
		c.RangeAny(func(mk, mv any) bool { visit(mk); visit(mv); return true })
	case collections.Optional:
		if c.IsPresent() {
			visit(c.ValueAny())
		}
	}
}

// merge sorts spans by address and folds overlapping ones into regions.
// A span covering its neighbour decides the region's layout; two windows
// over the same array widen it.
func merge(spans []span) regionTable {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start() != spans[j].start() {
			return spans[i].start() < spans[j].start()
		}
		return spans[i].end() > spans[j].end()
	})
	var rt regionTable
	for _, sp := range spans {
		n := len(rt)
		if n == 0 || sp.start() >= rt[n-1].end() {
			rt = append(rt, region{span: sp})
			rt[n].reach(sp)
			continue
		}
		r := &rt[n-1]
		r.reach(sp)
		switch {
		case sp.end() > r.end():
			r.root = widen(r.span, sp)
			r.size = sp.end() - r.start()
		case sp.start() == r.start() && sp.end() == r.end() && r.root != nil && encloses(sp.root, r.root):
			r.root = sp.root
		}
	}
	return rt
}

// widen returns the layout of r extended by the partially overlapping sp,
// or nil when the two cannot be expressed as one array.
func widen(r, sp span) reflect.Type {
	if r.root == nil {
		return nil
	}
	el := elemOf(r.root)
	if el != elemOf(sp.root) || el.Size() == 0 {
		return nil
	}
	if (sp.start()-r.start())%el.Size() != 0 || (sp.end()-r.start())%el.Size() != 0 {
		return nil
	}
	return reflect.ArrayOf(int((sp.end()-r.start())/el.Size()), el)
}

func elemOf(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Array {
		return t.Elem()
	}
	return t
}

// encloses reports whether inner is reached from outer by descending
// through fields or elements stored at offset zero.
func encloses(outer, inner reflect.Type) bool {
	for {
		if outer == inner {
			return true
		}
		switch {
		case outer.Kind() == reflect.Struct && outer.NumField() > 0 && outer.Field(0).Offset == 0:
			outer = outer.Field(0).Type
		case outer.Kind() == reflect.Array && outer.Len() > 0:
			outer = outer.Elem()
		default:
			return false
		}
	}
}

// resolve returns a pointer of type *elem to the clone of the original
// memory at p, cloning the enclosing region first if no reference into it
// has been met yet. ok is false when p is not covered by a usable region.
func (k *call) resolve(p unsafe.Pointer, elem reflect.Type) (ptr reflect.Value, ok bool, err error) {
	r := k.regions.find(uintptr(p), elem.Size())
	if r == nil || r.root == nil {
		return reflect.Value{}, false, nil
	}
	if !r.clone.IsValid() {
		if err := k.cloneRegion(r); err != nil {
			return reflect.Value{}, false, err
		}
	}
	at := unsafe.Add(r.clone.UnsafePointer(), uintptr(p)-r.start())
	return reflect.NewAt(elem, at), true, nil
}

// cloneRegion allocates the region's root and copies the original memory
// into it. The clone is recorded before its contents are copied so that
// references back into the region resolve to it.
func (k *call) cloneRegion(r *region) error {
	composite := r.root.Kind() == reflect.Struct && k.classifier.Classify(r.root) == typeinfo.Composite
	var ptr reflect.Value
	if composite {
		var err error
		if ptr, err = k.construct(r.root); err != nil {
			return err
		}
	} else {
		ptr = reflect.New(r.root)
	}
	r.clone = ptr

	src := reflect.NewAt(r.root, r.origin).Elem()
	switch {
	case composite:
		return k.populate(ptr.Elem(), src)
	case k.classifier.Classify(r.root) == typeinfo.Array &&
		k.classifier.Classify(r.root.Elem()) != typeinfo.Scalar:
		return k.cloneReached(r, ptr.Elem(), src)
	default:
		return k.cloneInto(ptr.Elem(), src)
	}
}

// cloneReached clones the elements of an array region that a pointer or a
// slice length reaches. Elements only in spare slice capacity stay zero.
func (k *call) cloneReached(r *region, dst, src reflect.Value) error {
	size := r.root.Elem().Size()
	reached := r.reached
	for i := 0; i < src.Len() && len(reached) > 0; i++ {
		lo := r.start() + uintptr(i)*size
		for len(reached) > 0 && reached[0].hi <= lo {
			reached = reached[1:]
		}
		if len(reached) == 0 || reached[0].lo >= lo+size {
			continue
		}
		k.path.pushIndex(i)
		err := k.cloneInto(dst.Index(i), src.Index(i))
		k.path.pop()
		if err != nil {
			return err
		}
	}
	return nil
}
