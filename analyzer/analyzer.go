// Package analyzer is the Korean morphological analyzer. It scans the input
// unit by unit, populates a lattice of candidate morphemes from the symbol
// classifiers and the dictionaries, and decodes the cheapest path.
//
// A Komoran holds only read-only state and atomically swapped dictionaries,
// so one instance serves concurrent calls: every call scans with its own
// lattice and its own automaton cursors.
package analyzer

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/dictionary"
	"github.com/steosofficial/koreanmorphy/jaso"
	"github.com/steosofficial/koreanmorphy/lattice"
	"github.com/steosofficial/koreanmorphy/model"
)

// ErrEmptyToken - Analyze got a space delimited token that is empty after
// trimming (leading or doubled spaces, blank input).
var ErrEmptyToken = errors.New("empty token")

// --- DATA STRUCTURES ---

// Komoran - the analyzer. Create it with New.
type Komoran struct {
	res    *model.Resources
	scorer lattice.Scorer

	userDic atomic.Pointer[dictionary.Trie[model.ScoredTag]]
	fwdDic  atomic.Pointer[model.ForwardDictionary]

	naID, swID int
	runTagIDs  map[string]int
}

// Option configures a Komoran at construction.
type Option func(*Komoran)

// WithUserDictionary installs an already loaded user dictionary.
func WithUserDictionary(trie *dictionary.Trie[model.ScoredTag]) Option {
	return func(k *Komoran) {
		k.userDic.Store(trie)
	}
}

// WithForwardDictionary installs an already loaded forward dictionary.
func WithForwardDictionary(fwd model.ForwardDictionary) Option {
	return func(k *Komoran) {
		k.fwdDic.Store(&fwd)
	}
}

// --- CONSTRUCTION ---

// New creates an analyzer over res. The Resources must outlive it.
func New(res *model.Resources, opts ...Option) *Komoran {
	k := &Komoran{
		res:  res,
		naID: res.Tags.MustID(model.TagNA),
		swID: res.Tags.MustID(model.TagSW),
		runTagIDs: map[string]int{
			model.TagSL: res.Tags.MustID(model.TagSL),
			model.TagSN: res.Tags.MustID(model.TagSN),
			model.TagSH: res.Tags.MustID(model.TagSH),
		},
	}
	// A nil *TransitionMatrix must not end up in the interface.
	if res.Transitions != nil {
		k.scorer = res.Transitions
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// LoadUserDic loads a user dictionary and swaps it in once it is complete.
// On error the previous dictionary stays in place.
func (k *Komoran) LoadUserDic(path string) error {
	trie, err := model.LoadUserDictionary(path, k.res.Tags)
	if err != nil {
		return err
	}
	k.userDic.Store(trie)
	log.Debug().Str("path", path).Int("entries", trie.Len()).Msg("user dictionary swapped in")
	return nil
}

// LoadFwdDic loads a forward dictionary and swaps it in once it is complete.
// On error the previous dictionary stays in place.
func (k *Komoran) LoadFwdDic(path string) error {
	fwd, err := model.LoadForwardDictionary(path)
	if err != nil {
		return err
	}
	k.fwdDic.Store(&fwd)
	log.Debug().Str("path", path).Int("entries", len(fwd)).Msg("forward dictionary swapped in")
	return nil
}

// Tags returns the tag table of the loaded model.
func (k *Komoran) Tags() *model.TagTable {
	return k.res.Tags
}

// --- ANALYSIS ---

// Analyze splits text on spaces and analyzes every token on its own. A token
// found in the forward dictionary is taken from there verbatim. A token no
// path covers comes back as a single NA token. Empty tokens fail the whole
// call with ErrEmptyToken.
func (k *Komoran) Analyze(text string) (Result, error) {
	fields := strings.Split(text, " ")
	// trailing empty fields are not tokens
	for len(fields) > 1 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}

	var fwd model.ForwardDictionary
	if p := k.fwdDic.Load(); p != nil {
		fwd = *p
	}
	userDic := k.userDic.Load()

	var result Result
	for i, field := range fields {
		token := strings.TrimSpace(field)
		if token == "" {
			return Result{}, fmt.Errorf("token %d: %w", i, ErrEmptyToken)
		}

		if pairs, ok := fwd[token]; ok {
			for _, p := range pairs {
				result.Tokens = append(result.Tokens, newToken(p.Morph, p.Tag))
			}
			continue
		}

		units := []rune(jaso.Parse(token))
		s := k.newScan(units, userDic)
		for idx := range units {
			k.scanUnit(s, idx)
		}
		k.flushRun(s, len(units))
		s.lat.SetLastIdx(len(units))
		s.lat.AppendEndNode()

		path := s.lat.FindPath()
		if path == nil {
			log.Debug().Str("token", token).Msg("token not analyzable")
			result.Tokens = append(result.Tokens, newToken(token, model.TagNA))
			continue
		}
		result.Tokens = appendPath(result.Tokens, path)
	}
	return result, nil
}

// AnalyzeWithSpacing analyzes the whole text in one lattice. Every space
// closes the span before it, so no morpheme crosses a space. A space
// delimited chunk no path covers becomes a single NA token.
func (k *Komoran) AnalyzeWithSpacing(text string) Result {
	units := []rune(jaso.Parse(text))
	s := k.newScan(units, k.userDic.Load())

	chunkStart := 0
	for idx, unit := range units {
		if unit != ' ' {
			k.scanUnit(s, idx)
			continue
		}
		// 1. Flush the pending run so it ends before the space.
		k.flushRun(s, idx)
		// 2. Close the chunk, bridging it when nothing reaches the space.
		s.resetCursors()
		k.closeChunk(s, chunkStart, idx)
		// 3. The next chunk begins behind the boundary.
		chunkStart = idx + 1
	}
	k.flushRun(s, len(units))
	k.closeChunk(s, chunkStart, len(units))

	path := s.lat.FindPath()
	if path == nil {
		log.Debug().Str("text", text).Msg("sentence not analyzable")
		return Result{Tokens: []Token{newToken(text, model.TagNA)}}
	}
	return Result{Tokens: appendPath(nil, path)}
}

// AnalyzeList analyzes texts in parallel with Analyze, keeping their order.
// An input Analyze rejects gets an empty Result with Err set.
func (k *Komoran) AnalyzeList(texts []string) []Result {
	const chunkSize = 1000 // Texts handed to a worker at once.
	numWorkers := runtime.NumCPU()

	type chunk struct {
		offset int
		texts  []string
	}
	chunksCh := make(chan chunk, numWorkers)
	results := make([]Result, len(texts))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for c := range chunksCh {
				for j, text := range c.texts {
					res, err := k.Analyze(text)
					if err != nil {
						res = Result{Err: err}
					}
					// Every index is written by exactly one worker.
					results[c.offset+j] = res
				}
			}
		}()
	}

	for i := 0; i < len(texts); i += chunkSize {
		end := min(i+chunkSize, len(texts))
		chunksCh <- chunk{offset: i, texts: texts[i:end]}
	}
	close(chunksCh)
	wg.Wait()

	return results
}

// appendPath appends a backward decoded path to tokens in reading order,
// turning unit-form morphemes back into text.
func appendPath(tokens []Token, path []model.MorphTag) []Token {
	for i := len(path) - 1; i >= 0; i-- {
		tokens = append(tokens, newToken(jaso.Combine(path[i].Morph), path[i].Tag))
	}
	return tokens
}
