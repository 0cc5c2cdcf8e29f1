package clone

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type segmentKind uint8

const (
	segField segmentKind = iota
	segIndex
	segKey
	segStringKey
)

// segment is one step from the root to the value being cloned. Map keys are
// kept as values and only formatted when an error needs the path.
type segment struct {
	kind  segmentKind
	name  string
	index int
	key   reflect.Value
}

type path []segment

func (p *path) pushField(name string) { *p = append(*p, segment{kind: segField, name: name}) }
func (p *path) pushIndex(i int) { *p = append(*p, segment{kind: segIndex, index: i}) }
func (p *path) pushKey(k reflect.Value) { *p = append(*p, segment{kind: segKey, key: k}) }
func (p *path) pushStringKey(k string) { *p = append(*p, segment{kind: segStringKey, name: k}) }
func (p *path) pop() { *p = (*p)[:len(*p)-1] }

func (p path) String() string {
	var b strings.Builder
	for _, s := range p {
		switch s.kind {
		case segField:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.name)
		case segIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		case segStringKey:
			b.WriteString("[" + strconv.Quote(s.name) + "]")
		case segKey:
			if s.key.IsValid() && s.key.CanInterface() {
				fmt.Fprintf(&b, "[%v]", s.key.Interface())
			} else {
				b.WriteString("[?]")
			}
		}
	}
	return b.String()
}
