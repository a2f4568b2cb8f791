package dictionary

import (
	"errors"
	"sort"
)

// ErrEmptySurface is returned by Builder.Put for an empty surface.
var ErrEmptySurface = errors.New("empty surface")

// node - recursive in-memory representation used while entries are added.
type node[V any] struct {
	children map[rune]*node[V]
	values   []V
	surface  string
	final    bool
}

// Builder collects entries and compiles them into a Trie. A Builder is not
// safe for concurrent use; the Trie it builds is.
type Builder[V any] struct {
	root    *node[V]
	entries int
}

func NewBuilder[V any]() *Builder[V] {
	return &Builder[V]{root: &node[V]{}}
}

// Put appends v to the values of surface.
func (b *Builder[V]) Put(surface string, v V) error {
	if surface == "" {
		return ErrEmptySurface
	}
	curr := b.root
	for _, r := range surface {
		if curr.children == nil {
			curr.children = make(map[rune]*node[V])
		}
		next, ok := curr.children[r]
		if !ok {
			next = &node[V]{}
			curr.children[r] = next
		}
		curr = next
	}
	if !curr.final {
		curr.final = true
		curr.surface = surface
		b.entries++
	}
	curr.values = append(curr.values, v)
	return nil
}

// Len returns the number of distinct surfaces added so far.
func (b *Builder[V]) Len() int {
	return b.entries
}

// Build flattens the collected entries breadth first and computes the fail
// and output links. The builder can keep receiving entries afterwards; a
// later Build includes them.
func (b *Builder[V]) Build() *Trie[V] {
	t := &Trie[V]{}

	// 1. Breadth-first numbering: the children of every node get consecutive
	// IDs and their edges form one contiguous sorted block.
	queue := []*node[V]{b.root}
	t.nodes = append(t.nodes, FlatNode{})
	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		flat := &t.nodes[head]
		if curr.final {
			flat.Final = 1
			flat.SurfaceID = uint32(len(t.surfaces))
			flat.ValuesID = uint32(len(t.values))
			t.surfaces = append(t.surfaces, curr.surface)
			t.values = append(t.values, curr.values)
		}

		chars := make([]rune, 0, len(curr.children))
		for r := range curr.children {
			chars = append(chars, r)
		}
		sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })

		flat.EdgesIdx = uint32(len(t.edges))
		flat.EdgesLen = uint32(len(chars))
		depth := flat.Depth + 1
		for _, r := range chars {
			id := uint32(len(queue))
			queue = append(queue, curr.children[r])
			t.edges = append(t.edges, FlatEdge{Char: r, NodeID: id})
			t.nodes = append(t.nodes, FlatNode{Depth: depth})
		}
	}

	// 2. Fail and output links. A fail target is always shallower than the
	// node, so in BFS order its own links are already set.
	for id := range t.nodes {
		parent := t.nodes[id]
		for _, e := range t.edges[parent.EdgesIdx : parent.EdgesIdx+parent.EdgesLen] {
			child := &t.nodes[e.NodeID]
			if id == 0 {
				child.Fail = 0
			} else {
				f := parent.Fail
				for {
					if target, ok := t.child(f, e.Char); ok {
						child.Fail = target
						break
					}
					if f == 0 {
						child.Fail = 0
						break
					}
					f = t.nodes[f].Fail
				}
			}
			if t.nodes[child.Fail].Final == 1 {
				child.Output = child.Fail
			} else {
				child.Output = t.nodes[child.Fail].Output
			}
		}
	}
	return t
}
