// Package dictionary implements the character-incremental multi-pattern
// matcher the analyzer scans its dictionaries with: an Aho-Corasick automaton
// stored in flat arrays so that it can be written to disk and mapped back
// without copying.
package dictionary

import (
	"errors"
	"fmt"
	"sort"
)

// --- DATA STRUCTURES ---

// Cursor - position of a scan inside the automaton. The zero value is the root.
// Cursors are plain values, so any number of scans can share one Trie.
type Cursor uint32

// FlatNode - "flat" node representation. Instead of pointers it keeps indexes
// into the global edge array and the surface/value pools.
// All fields are uint32 so the struct has no padding and can be viewed
// directly over mapped memory.
type FlatNode struct {
	EdgesIdx  uint32 // Start of the node's edge block in Edges.
	EdgesLen  uint32 // Number of outgoing edges.
	Fail      uint32 // Longest proper suffix that is also a path in the trie.
	Output    uint32 // Nearest final node along the fail chain, 0 if none.
	SurfaceID uint32 // Index into the surface pool, valid for final nodes.
	ValuesID  uint32 // Index into the value pool, valid for final nodes.
	Depth     uint32 // Length of the path from the root, in units.
	Final     uint32 // 1 if a dictionary entry ends here.
}

// FlatEdge - "flat" edge representation. Edges of one node are stored as a
// contiguous block sorted by Char.
type FlatEdge struct {
	Char   rune   // Unit on the edge.
	NodeID uint32 // ID of the child node.
}

// Match - a dictionary entry whose surface ends at the current unit.
type Match[V any] struct {
	Surface string // Surface form in units.
	Len     int    // Length of Surface in units.
	Values  []V    // Everything stored for the surface.
}

// Trie - immutable automaton produced by Builder.Build or NewTrieFromFlat.
type Trie[V any] struct {
	nodes    []FlatNode
	edges    []FlatEdge
	surfaces []string
	values   [][]V
}

// ErrCorruptTrie is returned by NewTrieFromFlat for arrays that cannot form an automaton.
var ErrCorruptTrie = errors.New("corrupt trie data")

// NewTrieFromFlat wraps externally owned arrays (for example views over a
// mapped model file). The arrays are not copied and must stay valid for the
// lifetime of the Trie.
func NewTrieFromFlat[V any](nodes []FlatNode, edges []FlatEdge, surfaces []string, values [][]V) (*Trie[V], error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no root node", ErrCorruptTrie)
	}
	for i := range nodes {
		n := &nodes[i]
		if int(n.EdgesIdx)+int(n.EdgesLen) > len(edges) {
			return nil, fmt.Errorf("%w: node %d edges out of range", ErrCorruptTrie, i)
		}
		if int(n.Fail) >= len(nodes) || int(n.Output) >= len(nodes) {
			return nil, fmt.Errorf("%w: node %d links out of range", ErrCorruptTrie, i)
		}
		if n.Final == 1 && (int(n.SurfaceID) >= len(surfaces) || int(n.ValuesID) >= len(values)) {
			return nil, fmt.Errorf("%w: node %d payload out of range", ErrCorruptTrie, i)
		}
	}
	for i := range edges {
		if int(edges[i].NodeID) >= len(nodes) {
			return nil, fmt.Errorf("%w: edge %d target out of range", ErrCorruptTrie, i)
		}
	}
	return &Trie[V]{nodes: nodes, edges: edges, surfaces: surfaces, values: values}, nil
}

// Flat exposes the arrays backing the trie, for serialization.
func (t *Trie[V]) Flat() ([]FlatNode, []FlatEdge, []string, [][]V) {
	return t.nodes, t.edges, t.surfaces, t.values
}

// Len returns the number of distinct surfaces stored.
func (t *Trie[V]) Len() int {
	return len(t.surfaces)
}

// --- LOOKUP ---

// Start returns the cursor of a fresh scan.
func (t *Trie[V]) Start() Cursor {
	return 0
}

// Advance feeds one unit to the automaton. It returns the new cursor and every
// entry whose surface ends at this unit, longest first. When the current state
// has no transition for unit the fail links are followed, so the scan always
// continues from the longest suffix that is still a dictionary prefix.
func (t *Trie[V]) Advance(c Cursor, unit rune) (Cursor, []Match[V]) {
	n := uint32(c)
	for {
		if child, ok := t.child(n, unit); ok {
			n = child
			break
		}
		if n == 0 {
			break
		}
		n = t.nodes[n].Fail
	}

	var matches []Match[V]
	if t.nodes[n].Final == 1 {
		matches = append(matches, t.match(n))
	}
	for o := t.nodes[n].Output; o != 0; o = t.nodes[o].Output {
		matches = append(matches, t.match(o))
	}
	return Cursor(n), matches
}

// HasContinuation reports whether some entry has text as a strict prefix.
func (t *Trie[V]) HasContinuation(text string) bool {
	n, ok := t.walk(text)
	return ok && t.nodes[n].EdgesLen > 0
}

// Get returns the values stored for exactly text, or nil.
func (t *Trie[V]) Get(text string) []V {
	n, ok := t.walk(text)
	if !ok || t.nodes[n].Final != 1 {
		return nil
	}
	return t.values[t.nodes[n].ValuesID]
}

func (t *Trie[V]) match(n uint32) Match[V] {
	node := t.nodes[n]
	return Match[V]{
		Surface: t.surfaces[node.SurfaceID],
		Len:     int(node.Depth),
		Values:  t.values[node.ValuesID],
	}
}

func (t *Trie[V]) walk(text string) (uint32, bool) {
	n := uint32(0)
	for _, r := range text {
		child, ok := t.child(n, r)
		if !ok {
			return 0, false
		}
		n = child
	}
	return n, true
}

// child looks the edge up with a binary search, since the edges of a node are
// sorted by unit.
func (t *Trie[V]) child(nodeIndex uint32, char rune) (uint32, bool) {
	node := t.nodes[nodeIndex]
	if node.EdgesLen == 0 {
		return 0, false
	}
	searchSlice := t.edges[node.EdgesIdx : node.EdgesIdx+node.EdgesLen]
	i := sort.Search(len(searchSlice), func(i int) bool { return searchSlice[i].Char >= char })
	if i < len(searchSlice) && searchSlice[i].Char == char {
		return searchSlice[i].NodeID, true
	}
	return 0, false
}
