package model

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/steosofficial/koreanmorphy/dictionary"
	"github.com/steosofficial/koreanmorphy/jaso"
)

// UserEntryScore - cost of every user dictionary reading. Zero is the lowest
// possible emission cost, which biases the decode towards user entries.
const UserEntryScore = 0.0

// --- USER DICTIONARY ---

// LoadUserDictionary reads `morph<TAB>tag` lines. A line without a tab is a
// morpheme tagged NNP. Blank lines and lines starting with '#' are skipped.
// Unknown tags and I/O errors fail the load: a half-loaded dictionary is
// never returned.
func LoadUserDictionary(path string, tags *TagTable) (*dictionary.Trie[ScoredTag], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open user dictionary: %w", err)
	}
	defer file.Close()

	builder := dictionary.NewBuilder[ScoredTag]()
	var result *multierror.Error
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		morph, tag := line, TagNNP
		if idx := strings.LastIndex(line, "\t"); idx != -1 {
			morph, tag = strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
		}
		id, ok := tags.ID(tag)
		if !ok {
			result = multierror.Append(result, &LineError{File: path, Line: lineNum, Msg: fmt.Sprintf("unknown tag %q", tag)})
			continue
		}
		if err := builder.Put(jaso.Parse(morph), ScoredTag{Tag: tag, TagID: id, Score: UserEntryScore}); err != nil {
			result = multierror.Append(result, &LineError{File: path, Line: lineNum, Msg: err.Error()})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user dictionary: %w", err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid user dictionary: %w", err)
	}
	log.Info().Str("path", path).Int("entries", builder.Len()).Msg("loaded user dictionary")
	return builder.Build(), nil
}

// --- FORWARD DICTIONARY ---

// Pair - a morpheme and its tag name, in ordinary text.
type Pair struct {
	Morph string
	Tag   string
}

// ForwardDictionary - pre-analyzed whole tokens. Analysis of a token found
// here skips the lattice.
type ForwardDictionary map[string][]Pair

// LoadForwardDictionary reads `problem<TAB>answer` lines, the answer being a
// sequence of morph/TAG joined by '+' or spaces. Comments and malformed lines
// are skipped with a warning; I/O errors fail the load.
func LoadForwardDictionary(path string) (ForwardDictionary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open forward dictionary: %w", err)
	}
	defer file.Close()

	fwd := make(ForwardDictionary)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		fields := strings.Split(line, "\t")
		if len(fields) != 2 || fields[0] == "" || fields[0][0] == '#' {
			continue
		}
		answer, err := ParseAnswer(fields[1])
		if err != nil {
			log.Warn().Str("path", path).Int("line", lineNum).Err(err).Msg("skipping malformed forward dictionary line")
			continue
		}
		fwd[strings.TrimSpace(fields[0])] = answer
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read forward dictionary: %w", err)
	}
	log.Info().Str("path", path).Int("entries", len(fwd)).Msg("loaded forward dictionary")
	return fwd, nil
}

// ParseAnswer parses an analysis like "감기/NNG+는/JX" or "감기/NNG 는/JX".
func ParseAnswer(answer string) ([]Pair, error) {
	var pairs []Pair
	for _, chunk := range strings.Fields(answer) {
		for _, part := range strings.Split(chunk, "+") {
			if part == "" {
				continue
			}
			morph, tag, err := ParseMorphTag(part)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Morph: morph, Tag: tag})
		}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("empty answer")
	}
	return pairs, nil
}
