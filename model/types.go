// Package model holds everything the analyzer consumes read-only: the tag
// table, the regular and irregular dictionaries, transition costs, and the
// user and forward dictionaries. It loads them from text sources or from a
// compiled binary model mapped into memory.
package model

import (
	"fmt"
	"strings"

	"github.com/edsrzf/mmap-go"

	"github.com/steosofficial/koreanmorphy/dictionary"
)

// --- DATA STRUCTURES ---

// ScoredTag - one reading of a dictionary surface: its tag and emission cost.
type ScoredTag struct {
	Tag   string
	TagID int
	Score float64
}

// MorphTag - a morpheme with its tag. Morph is kept in unit (jaso) form.
type MorphTag struct {
	Morph string
	Tag   string
	TagID int
}

// IrregularNode - one analysis of an irregular surface: the morphemes it
// stands for and the emission cost of the whole expansion.
type IrregularNode struct {
	Tokens []MorphTag
	Score  float64
}

// FirstTagID is the tag the expansion enters the lattice with.
func (n IrregularNode) FirstTagID() int {
	return n.Tokens[0].TagID
}

// LastTagID is the tag the expansion leaves the lattice with.
func (n IrregularNode) LastTagID() int {
	return n.Tokens[len(n.Tokens)-1].TagID
}

// LastMorph is the morpheme irregular extension continues from.
func (n IrregularNode) LastMorph() string {
	return n.Tokens[len(n.Tokens)-1].Morph
}

// Resources - the read-only bundle shared by every analysis.
type Resources struct {
	Tags        *TagTable
	Observation *dictionary.Trie[ScoredTag]
	Irregular   *dictionary.Trie[IrregularNode]
	// Transitions may be nil, in which case paths are scored by emission only.
	Transitions *TransitionMatrix

	// Kept so the mapped memory the tries point into stays alive.
	mmapFile mmap.MMap
}

// Close releases the mapped model file, if any. The Resources must not be
// used afterwards.
func (r *Resources) Close() error {
	if r.mmapFile == nil {
		return nil
	}
	err := r.mmapFile.Unmap()
	r.mmapFile = nil
	return err
}

// --- TEXT FORMAT HELPERS ---

// ParseMorphTag splits "morph/TAG" on its last slash, so morphemes containing
// a slash survive.
func ParseMorphTag(s string) (morph, tag string, err error) {
	idx := strings.LastIndex(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return "", "", fmt.Errorf("malformed morpheme %q, expected morph/TAG", s)
	}
	return s[:idx], s[idx+1:], nil
}
