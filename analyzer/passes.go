package analyzer

import (
	"unicode"

	"github.com/steosofficial/koreanmorphy/dictionary"
	"github.com/steosofficial/koreanmorphy/lattice"
	"github.com/steosofficial/koreanmorphy/model"
)

// Emission costs of the readings the classifiers produce.
const (
	RunCost    = 1.0   // SL, SN and SH runs
	SymbolCost = 100.0 // single SW symbols
)

// scanState - everything one scan mutates. Nothing here outlives the call.
type scanState struct {
	lat   *lattice.Lattice
	units []rune

	userDic                 *dictionary.Trie[model.ScoredTag]
	obsCur, irrCur, userCur dictionary.Cursor

	// pending continuous run
	prevPos      string
	prevMorph    []rune
	prevBeginIdx int
}

func (k *Komoran) newScan(units []rune, userDic *dictionary.Trie[model.ScoredTag]) *scanState {
	s := &scanState{
		lat:     lattice.New(k.res.Tags, k.scorer, len(units)),
		units:   units,
		userDic: userDic,
	}
	s.resetCursors()
	return s
}

// resetCursors starts every automaton over, so no match crosses the
// current offset.
func (s *scanState) resetCursors() {
	s.obsCur, s.irrCur, s.userCur = 0, 0, 0
}

// scanUnit runs the population passes for the unit at idx, in precedence
// order.
func (k *Komoran) scanUnit(s *scanState, idx int) {
	unit := s.units[idx]
	k.continuousSymbol(s, unit, idx)
	k.symbol(s, unit, idx)
	k.userDicLookup(s, unit, idx)
	k.regularLookup(s, unit, idx)
	k.irregularLookup(s, unit, idx)
	k.irregularExtends(s, unit, idx)
}

// --- SYMBOLS ---

// runClass returns the tag of the continuous run unit belongs to, or "".
func runClass(unit rune) string {
	switch {
	case unit < unicode.MaxASCII && unicode.IsLetter(unit):
		return model.TagSL
	case unicode.IsDigit(unit):
		return model.TagSN
	case unicode.Is(unicode.Han, unit):
		return model.TagSH
	case unicode.IsLetter(unit) && !unicode.Is(unicode.Hangul, unit):
		return model.TagSL
	default:
		return ""
	}
}

// continuousSymbol buffers runs of one class and puts the whole run once a
// unit of another class shows up.
func (k *Komoran) continuousSymbol(s *scanState, unit rune, idx int) {
	class := runClass(unit)
	if class != "" && class == s.prevPos {
		s.prevMorph = append(s.prevMorph, unit)
		return
	}
	k.flushRun(s, idx)
	if class != "" {
		s.prevPos = class
		s.prevMorph = append(s.prevMorph[:0], unit)
		s.prevBeginIdx = idx
	}
}

// flushRun puts the pending run as [prevBeginIdx, endIdx) and clears it.
func (k *Komoran) flushRun(s *scanState, endIdx int) {
	if s.prevPos == "" {
		return
	}
	s.lat.Put(s.prevBeginIdx, endIdx, string(s.prevMorph), s.prevPos, k.runTagIDs[s.prevPos], RunCost)
	s.prevPos = ""
	s.prevMorph = s.prevMorph[:0]
}

// symbol puts a single-unit SW reading for units no other pass owns. It
// reports whether it did.
func (k *Komoran) symbol(s *scanState, unit rune, idx int) bool {
	switch {
	case unit == ' ',
		unicode.IsDigit(unit),
		unit < unicode.MaxASCII && unicode.IsLetter(unit),
		unicode.In(unit, unicode.Hangul, unicode.Katakana, unicode.Hiragana, unicode.Han):
		return false
	case k.res.Observation.Get(string(unit)) != nil:
		return false
	}
	return s.lat.Put(idx, idx+1, string(unit), model.TagSW, k.swID, SymbolCost)
}

// --- DICTIONARIES ---

// userDicLookup puts every user dictionary entry ending at idx.
func (k *Komoran) userDicLookup(s *scanState, unit rune, idx int) bool {
	if s.userDic == nil {
		return false
	}
	var matches []dictionary.Match[model.ScoredTag]
	s.userCur, matches = s.userDic.Advance(s.userCur, unit)
	k.putMatches(s, matches, idx)
	return len(matches) > 0
}

// regularLookup puts every regular dictionary entry ending at idx. Several
// surfaces of different lengths may end at the same unit.
func (k *Komoran) regularLookup(s *scanState, unit rune, idx int) bool {
	var matches []dictionary.Match[model.ScoredTag]
	s.obsCur, matches = k.res.Observation.Advance(s.obsCur, unit)
	k.putMatches(s, matches, idx)
	return len(matches) > 0
}

func (k *Komoran) putMatches(s *scanState, matches []dictionary.Match[model.ScoredTag], idx int) {
	for _, m := range matches {
		beginIdx := idx - m.Len + 1
		for _, st := range m.Values {
			s.lat.Put(beginIdx, idx+1, m.Surface, st.Tag, st.TagID, st.Score)
		}
	}
}

// --- IRREGULARS ---

// irregularLookup puts every irregular analysis whose surface ends at idx.
func (k *Komoran) irregularLookup(s *scanState, unit rune, idx int) bool {
	var matches []dictionary.Match[model.IrregularNode]
	s.irrCur, matches = k.res.Irregular.Advance(s.irrCur, unit)
	for _, m := range matches {
		beginIdx := idx - m.Len + 1
		for _, irr := range m.Values {
			s.lat.PutIrregular(beginIdx, idx+1, irr)
		}
	}
	return len(matches) > 0
}

// irregularExtends grows the irregular and pending nodes ending at idx by
// the current unit. The grown tail stays pending while the regular
// dictionary still has entries beyond it, and resolves into a regular reading
// of the whole span when the tail itself is an entry.
func (k *Komoran) irregularExtends(s *scanState, unit rune, idx int) {
	var extended []lattice.Node
	for _, n := range s.lat.Nodes(idx) {
		if n.Kind != lattice.KindIrregular && n.Kind != lattice.KindPending {
			continue
		}
		tail := n.Morph + string(unit)

		if k.res.Observation.HasContinuation(tail) {
			grown := n
			grown.End = idx + 1
			grown.Morph = tail
			grown.Kind = lattice.KindPending
			extended = append(extended, grown)
		}

		for _, st := range k.res.Observation.Get(tail) {
			tokens := make([]model.MorphTag, len(n.Tokens))
			copy(tokens, n.Tokens)
			tokens[len(tokens)-1] = model.MorphTag{Morph: tail, Tag: st.Tag, TagID: st.TagID}
			s.lat.PutTokens(n.Begin, idx+1, tail, tokens, n.Emission+st.Score)
		}
	}
	for _, n := range extended {
		s.lat.AppendNode(n)
	}
}

// --- BOUNDARIES ---

// closeChunk ends the chunk [chunkStart, endIdx) with a boundary. When no
// path reaches endIdx the chunk is bridged by one NA node scored like the
// chunk start, so the decode always has a path.
func (k *Komoran) closeChunk(s *scanState, chunkStart, endIdx int) {
	s.lat.SetLastIdx(endIdx)
	if s.lat.AppendEndNode() {
		return
	}
	start := s.lat.Nodes(chunkStart)
	if len(start) == 0 {
		return
	}
	s.lat.AppendNode(lattice.Node{
		Begin:     chunkStart,
		End:       endIdx,
		Morph:     string(s.units[chunkStart:endIdx]),
		Tag:       model.TagNA,
		TagID:     k.naID,
		LastTagID: k.naID,
		Score:     start[0].Score,
		Prev:      0,
		Kind:      lattice.KindMorpheme,
	})
	s.lat.AppendEndNode()
}
