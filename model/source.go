package model

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/czcorpus/cnc-gokit/fs"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/dictionary"
	"github.com/steosofficial/koreanmorphy/jaso"
)

// Files of a model directory in text form.
const (
	ObservationFile = "observation.txt"
	IrregularFile   = "irregular.txt"
	TransitionFile  = "transition.txt"
)

// LineError - a problem at a specific line of a dictionary or model file.
type LineError struct {
	File string
	Line int
	Msg  string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// --- MODEL BUILDER ---

// ModelBuilder accumulates dictionary entries and produces Resources. Surfaces
// and morphemes are given in ordinary text and normalized on the way in.
type ModelBuilder struct {
	tags        *TagTable
	observation *dictionary.Builder[ScoredTag]
	irregular   *dictionary.Builder[IrregularNode]
	transitions *TransitionMatrix
}

func NewModelBuilder(tags *TagTable) *ModelBuilder {
	return &ModelBuilder{
		tags:        tags,
		observation: dictionary.NewBuilder[ScoredTag](),
		irregular:   dictionary.NewBuilder[IrregularNode](),
	}
}

// AddMorph adds a regular dictionary entry.
func (b *ModelBuilder) AddMorph(surface, tag string, cost float64) error {
	id, ok := b.tags.ID(tag)
	if !ok {
		return fmt.Errorf("unknown tag %q", tag)
	}
	if cost < 0 {
		return fmt.Errorf("negative cost %v for %q", cost, surface)
	}
	return b.observation.Put(jaso.Parse(surface), ScoredTag{Tag: tag, TagID: id, Score: cost})
}

// AddIrregular adds an irregular entry. analysis is a "morph/TAG+morph/TAG"
// expansion of surface.
func (b *ModelBuilder) AddIrregular(surface, analysis string, cost float64) error {
	if cost < 0 {
		return fmt.Errorf("negative cost %v for %q", cost, surface)
	}
	var node IrregularNode
	for _, part := range strings.Split(analysis, "+") {
		morph, tag, err := ParseMorphTag(part)
		if err != nil {
			return err
		}
		id, ok := b.tags.ID(tag)
		if !ok {
			return fmt.Errorf("unknown tag %q", tag)
		}
		node.Tokens = append(node.Tokens, MorphTag{Morph: jaso.Parse(morph), Tag: tag, TagID: id})
	}
	node.Score = cost
	return b.irregular.Put(jaso.Parse(surface), node)
}

// AddTransition sets the cost of tag following prevTag.
func (b *ModelBuilder) AddTransition(prevTag, tag string, cost float64) error {
	prevID, ok := b.tags.ID(prevTag)
	if !ok {
		return fmt.Errorf("unknown tag %q", prevTag)
	}
	id, ok := b.tags.ID(tag)
	if !ok {
		return fmt.Errorf("unknown tag %q", tag)
	}
	if b.transitions == nil {
		b.transitions = NewTransitionMatrix(b.tags.Len(), 0)
	}
	return b.transitions.Set(prevID, id, cost)
}

// Build compiles the automata. The builder stays usable.
func (b *ModelBuilder) Build() *Resources {
	return &Resources{
		Tags:        b.tags,
		Observation: b.observation.Build(),
		Irregular:   b.irregular.Build(),
		Transitions: b.transitions,
	}
}

// --- TEXT SOURCES ---

// LoadSources reads a model directory in text form. Every malformed line is
// reported; a single bad line fails the whole load.
func LoadSources(dir string) (*Resources, error) {
	b := NewModelBuilder(DefaultTagTable())
	var result *multierror.Error

	obsPath := filepath.Join(dir, ObservationFile)
	err := readFields(obsPath, 3, func(line int, fields []string) error {
		cost, err := parseCost(fields[2])
		if err != nil {
			return err
		}
		return b.AddMorph(fields[0], fields[1], cost)
	})
	if err != nil {
		result = multierror.Append(result, err)
	}

	irrPath := filepath.Join(dir, IrregularFile)
	if fs.PathExists(irrPath) {
		err = readFields(irrPath, 3, func(line int, fields []string) error {
			cost, err := parseCost(fields[2])
			if err != nil {
				return err
			}
			return b.AddIrregular(fields[0], fields[1], cost)
		})
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	transPath := filepath.Join(dir, TransitionFile)
	if fs.PathExists(transPath) {
		err = readFields(transPath, 3, func(line int, fields []string) error {
			cost, err := parseCost(fields[2])
			if err != nil {
				return err
			}
			return b.AddTransition(fields[0], fields[1], cost)
		})
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("failed to load model sources from %s: %w", dir, err)
	}
	res := b.Build()
	log.Info().
		Str("dir", dir).
		Int("morphs", res.Observation.Len()).
		Int("irregulars", res.Irregular.Len()).
		Bool("transitions", res.Transitions != nil).
		Msg("loaded model sources")
	return res, nil
}

// readFields calls fn for every non-empty, non-comment line split on tabs
// into exactly n fields. Line level problems are collected, I/O problems
// abort.
func readFields(path string, n int, fn func(line int, fields []string) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var result *multierror.Error
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != n {
			result = multierror.Append(result, &LineError{
				File: path, Line: lineNum, Msg: fmt.Sprintf("expected %d tab separated fields, got %d", n, len(fields)),
			})
			continue
		}
		if err := fn(lineNum, fields); err != nil {
			result = multierror.Append(result, &LineError{File: path, Line: lineNum, Msg: err.Error()})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return result.ErrorOrNil()
}

func parseCost(s string) (float64, error) {
	cost, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cost %q", s)
	}
	if cost < 0 {
		return 0, fmt.Errorf("negative cost %v", cost)
	}
	return cost, nil
}
