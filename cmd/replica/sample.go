package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gxo-labs/replica/pkg/replica/v1/collections"
)

// node is one vertex of the cyclic part of the bench graph.
type node struct {
	ID    int
	Label string
	Next  *node
	Peers []*node
	Attrs map[string]string
}

// sample is the value cloned by the bench command. It mixes a decoded-JSON
// style tree, a ring of pointers with shared peers and ordered collections.
type sample struct {
	ID       uuid.UUID
	Name     string
	Created  time.Time
	Secret   string
	Config   map[string]interface{}
	Ring     *node
	Index    map[int]*node
	Tags     *collections.TreeSet[string]
	Pending  *collections.LinkedList[int]
	Checksum collections.Opt[string]
}

func buildSample(depth, width int) *sample {
	s := &sample{
		ID:       uuid.New(),
		Name:     "bench",
		Created:  time.Now(),
		Secret:   "s3cr3t",
		Config:   nestedMap(depth, width),
		Index:    make(map[int]*node, width),
		Tags:     collections.NewOrderedTreeSet[string](),
		Pending:  collections.NewLinkedList[int](),
		Checksum: collections.Some("sha256:0"),
	}

	nodes := make([]*node, width)
	for i := range nodes {
		nodes[i] = &node{
			ID:    i,
			Label: fmt.Sprintf("n%d", i),
			Attrs: map[string]string{"zone": fmt.Sprintf("z%d", i%3)},
		}
		s.Index[i] = nodes[i]
		s.Tags.Add(nodes[i].Label)
		s.Pending.PushBack(i)
	}
	for i, n := range nodes {
		n.Next = nodes[(i+1)%len(nodes)]
		n.Peers = []*node{nodes[(i+2)%len(nodes)], nodes[(i+3)%len(nodes)]}
	}
	if len(nodes) > 0 {
		s.Ring = nodes[0]
	}
	return s
}

func nestedMap(depth, width int) map[string]interface{} {
	if depth <= 0 {
		return map[string]interface{}{
			"leaf":   "value",
			"weight": 1.5,
			"list":   []interface{}{1, "two", true},
		}
	}
	m := make(map[string]interface{}, width)
	for i := 0; i < width; i++ {
		m[fmt.Sprintf("key_d%d_w%d", depth, i)] = nestedMap(depth-1, width)
	}
	return m
}
