// Package lattice holds the DAG of candidate morpheme spans built while a
// sentence is scanned, and its shortest-path decode.
//
// Nodes live in buckets indexed by their end offset. A node's predecessor is
// the node at position Prev of the bucket at its Begin offset, so back-links
// are plain indexes and the whole graph is released with the Lattice.
package lattice

import (
	"github.com/steosofficial/koreanmorphy/model"
)

// Kind discriminates what a node stands for.
type Kind uint8

const (
	// KindMorpheme - a resolved dictionary or symbol reading.
	KindMorpheme Kind = iota
	// KindIrregular - a complete irregular-dictionary analysis. It decodes to
	// its Tokens and may still be extended by the following units.
	KindIrregular
	// KindPending - an irregular analysis being extended whose last morpheme
	// is not a dictionary entry yet. Never a predecessor, never decoded.
	KindPending
	// KindBoundary - end sink of a sentence or of a space delimited chunk.
	KindBoundary
	// KindStart - the start sink at offset 0.
	KindStart
)

// Scorer - the pluggable part of the cost model: the cost of a node with
// tagID following a node that ends with prevTagID. Emission costs are added
// on top by the lattice. model.TransitionMatrix is a Scorer.
type Scorer interface {
	Transition(prevTagID, tagID int) float64
}

type additive struct{}

func (additive) Transition(int, int) float64 { return 0 }

// Node - a candidate span [Begin, End) over the unit sequence.
type Node struct {
	Begin, End int
	// Morph is the surface in units. For irregular and pending nodes it is
	// the last morpheme of the expansion, the part extension continues.
	Morph string
	Tag   string
	// TagID is the tag the node is entered with, LastTagID the one it is
	// left with. They differ only for multi-morpheme nodes.
	TagID     int
	LastTagID int
	// Score is the cumulative cost of the best path ending with this node.
	Score float64
	// Prev is the position of the predecessor in the bucket at Begin, -1
	// for the start sink.
	Prev int
	Kind Kind
	// Tokens, when set, is what the node decodes to instead of Morph/Tag.
	Tokens []model.MorphTag
	// Emission is the cost of the irregular analysis carried by irregular
	// and pending nodes, charged again when extension resolves them.
	Emission float64
}

func (n *Node) live() bool {
	return n.Kind != KindPending
}

// Lattice - DAG of candidate spans for one scan. Not safe for concurrent use;
// every analysis builds its own.
type Lattice struct {
	scorer  Scorer
	buckets [][]Node
	lastIdx int

	bosID, eosID int
}

// New creates a lattice for a unit sequence of about size units. A nil scorer
// scores paths by emission costs alone.
func New(tags *model.TagTable, scorer Scorer, size int) *Lattice {
	if scorer == nil {
		scorer = additive{}
	}
	l := &Lattice{
		scorer:  scorer,
		buckets: make([][]Node, size+2),
		lastIdx: size,
		bosID:   tags.MustID(model.TagBOS),
		eosID:   tags.MustID(model.TagEOS),
	}
	l.buckets[0] = append(l.buckets[0], Node{
		Morph:     model.TagBOS,
		Tag:       model.TagBOS,
		TagID:     l.bosID,
		LastTagID: l.bosID,
		Prev:      -1,
		Kind:      KindStart,
	})
	return l
}

// SetLastIdx moves the offset AppendEndNode finalizes.
func (l *Lattice) SetLastIdx(idx int) {
	l.lastIdx = idx
}

// LastIdx returns the offset AppendEndNode finalizes.
func (l *Lattice) LastIdx() int {
	return l.lastIdx
}

// Nodes returns the nodes ending at idx. The slice must not be modified.
func (l *Lattice) Nodes(idx int) []Node {
	if idx < 0 || idx >= len(l.buckets) {
		return nil
	}
	return l.buckets[idx]
}

// --- INSERTION ---

// Put inserts a reading of [beginIdx, endIdx) behind the cheapest live node
// ending at beginIdx. It reports false, inserting nothing, when no live node
// ends there.
func (l *Lattice) Put(beginIdx, endIdx int, morph, tag string, tagID int, emission float64) bool {
	prev, score, ok := l.bestPredecessor(beginIdx, tagID)
	if !ok {
		return false
	}
	l.insert(Node{
		Begin:     beginIdx,
		End:       endIdx,
		Morph:     morph,
		Tag:       tag,
		TagID:     tagID,
		LastTagID: tagID,
		Score:     score + emission,
		Prev:      prev,
		Kind:      KindMorpheme,
	})
	return true
}

// PutTokens is Put for a reading that decodes to several morphemes.
func (l *Lattice) PutTokens(beginIdx, endIdx int, morph string, tokens []model.MorphTag, emission float64) bool {
	first, last := tokens[0], tokens[len(tokens)-1]
	prev, score, ok := l.bestPredecessor(beginIdx, first.TagID)
	if !ok {
		return false
	}
	l.insert(Node{
		Begin:     beginIdx,
		End:       endIdx,
		Morph:     morph,
		Tag:       last.Tag,
		TagID:     first.TagID,
		LastTagID: last.TagID,
		Score:     score + emission,
		Prev:      prev,
		Kind:      KindMorpheme,
		Tokens:    tokens,
	})
	return true
}

// PutIrregular inserts an irregular-dictionary analysis of [beginIdx, endIdx).
func (l *Lattice) PutIrregular(beginIdx, endIdx int, irr model.IrregularNode) bool {
	prev, score, ok := l.bestPredecessor(beginIdx, irr.FirstTagID())
	if !ok {
		return false
	}
	last := irr.Tokens[len(irr.Tokens)-1]
	l.insert(Node{
		Begin:     beginIdx,
		End:       endIdx,
		Morph:     irr.LastMorph(),
		Tag:       last.Tag,
		TagID:     irr.FirstTagID(),
		LastTagID: irr.LastTagID(),
		Score:     score + irr.Score,
		Prev:      prev,
		Kind:      KindIrregular,
		Tokens:    irr.Tokens,
		Emission:  irr.Score,
	})
	return true
}

// AppendNode inserts a node whose predecessor and score are already set.
func (l *Lattice) AppendNode(n Node) {
	l.insert(n)
}

// AppendEndNode closes the span ending at LastIdx with a boundary node
// covering [LastIdx, LastIdx+1). In sentence mode that unit is the space, so
// the next chunk starts behind the boundary. It reports false when no live
// node ends at LastIdx; the caller then bridges the gap and retries.
func (l *Lattice) AppendEndNode() bool {
	prev, score, ok := l.bestPredecessor(l.lastIdx, l.eosID)
	if !ok {
		return false
	}
	l.insert(Node{
		Begin:     l.lastIdx,
		End:       l.lastIdx + 1,
		Morph:     model.TagEOS,
		Tag:       model.TagEOS,
		TagID:     l.eosID,
		LastTagID: l.eosID,
		Score:     score,
		Prev:      prev,
		Kind:      KindBoundary,
	})
	return true
}

// bestPredecessor picks the live node at idx with the lowest cost of being
// followed by tagID. The earliest inserted node wins ties.
func (l *Lattice) bestPredecessor(idx, tagID int) (int, float64, bool) {
	best, bestScore := -1, 0.0
	for i := range l.Nodes(idx) {
		n := &l.buckets[idx][i]
		if !n.live() {
			continue
		}
		score := n.Score + l.scorer.Transition(n.LastTagID, tagID)
		if best == -1 || score < bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore, best != -1
}

// insert adds n to the bucket of its end offset. A node occupying the same
// span with the same tags as an existing one only replaces it when strictly
// cheaper; otherwise it is dropped.
func (l *Lattice) insert(n Node) {
	for n.End >= len(l.buckets) {
		l.buckets = append(l.buckets, nil)
	}
	bucket := l.buckets[n.End]
	for i := range bucket {
		o := &bucket[i]
		if sameSlot(o, &n) {
			if n.Score < o.Score {
				*o = n
			}
			return
		}
	}
	l.buckets[n.End] = append(bucket, n)
}

// sameSlot - irregular and pending nodes are extended from their last
// morpheme, so for them the surface is part of the identity.
func sameSlot(a, b *Node) bool {
	if a.Begin != b.Begin || a.Kind != b.Kind || a.TagID != b.TagID || a.LastTagID != b.LastTagID {
		return false
	}
	if a.Kind == KindIrregular || a.Kind == KindPending {
		return a.Morph == b.Morph
	}
	return true
}
