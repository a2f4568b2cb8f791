package lattice

import (
	"github.com/steosofficial/koreanmorphy/model"
)

// --- DECODE ---

// BestPath walks the back-links from the cheapest boundary node behind
// LastIdx to the start sink. Nodes come in backward (right-to-left) order,
// the boundary and start sinks included. It returns nil when nothing reaches
// LastIdx.
func (l *Lattice) BestPath() []Node {
	end := l.lastIdx + 1
	best := -1
	for i, n := range l.Nodes(end) {
		if n.Kind != KindBoundary || n.Begin != l.lastIdx {
			continue
		}
		// strict comparison: the earliest inserted node wins ties.
		if best == -1 || n.Score < l.buckets[end][best].Score {
			best = i
		}
	}
	if best == -1 {
		return nil
	}

	var path []Node
	idx, pos := end, best
	for pos >= 0 {
		n := l.buckets[idx][pos]
		path = append(path, n)
		if n.Kind == KindStart {
			break
		}
		idx, pos = n.Begin, n.Prev
	}
	return path
}

// FindPath decodes the lattice into morphemes in backward order, sinks and
// boundaries left out, multi-morpheme nodes expanded. Morphemes are in unit
// form. It returns nil when the lattice cannot be decoded.
func (l *Lattice) FindPath() []model.MorphTag {
	path := l.BestPath()
	if path == nil {
		return nil
	}
	result := make([]model.MorphTag, 0, len(path))
	for _, n := range path {
		switch {
		case n.Kind == KindStart || n.Kind == KindBoundary:
			continue
		case len(n.Tokens) > 0:
			for i := len(n.Tokens) - 1; i >= 0; i-- {
				result = append(result, n.Tokens[i])
			}
		default:
			result = append(result, model.MorphTag{Morph: n.Morph, Tag: n.Tag, TagID: n.TagID})
		}
	}
	return result
}
