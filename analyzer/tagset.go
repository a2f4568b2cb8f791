// tagset.go turns decoded (morpheme, tag) pairs into Token values: the tag is
// resolved to its class and a readable description, which is what the CLI,
// the HTTP API and the C binding serialize.
package analyzer

import (
	"strings"

	"github.com/steosofficial/koreanmorphy/model"
)

// TagSet - a set of tag names.
type TagSet map[string]struct{}

// Token - one morpheme of an analysis.
type Token struct {
	Morph       string `json:"morph"`       // Morpheme in ordinary text
	Tag         string `json:"tag"`         // Sejong tag
	Class       string `json:"class"`       // Coarse class of the tag, see classOf
	Description string `json:"description"` // Readable tag name
}

// Result - the analysis of one input, left to right.
type Result struct {
	Tokens []Token `json:"tokens"`
	// Err is set only by AnalyzeList for an input Analyze rejects.
	Err error `json:"-"`
}

// Tag classes.
const (
	ClassNoun        = "noun"
	ClassPredicate   = "predicate"
	ClassModifier    = "modifier"
	ClassIndependent = "independent"
	ClassParticle    = "particle"
	ClassEnding      = "ending"
	ClassAffix       = "affix"
	ClassSymbol      = "symbol"
	ClassUnknown     = "unknown"
)

// The sets below partition the Sejong tag set into classes. newToken uses
// them to fill Token.Class.
var (
	nounTags = TagSet{"NNG": {}, "NNP": {}, "NNB": {}, "NP": {}, "NR": {}}

	predicateTags = TagSet{"VV": {}, "VA": {}, "VX": {}, "VCP": {}, "VCN": {}}

	modifierTags = TagSet{"MM": {}, "MAG": {}, "MAJ": {}}

	independentTags = TagSet{"IC": {}}

	particleTags = TagSet{
		"JKS": {}, "JKC": {}, "JKG": {}, "JKO": {}, "JKB": {},
		"JKV": {}, "JKQ": {}, "JX": {}, "JC": {},
	}

	endingTags = TagSet{"EP": {}, "EF": {}, "EC": {}, "ETN": {}, "ETM": {}}

	affixTags = TagSet{"XPN": {}, "XSN": {}, "XSV": {}, "XSA": {}, "XR": {}}

	symbolTags = TagSet{
		"SF": {}, "SP": {}, "SS": {}, "SE": {}, "SO": {},
		"SW": {}, "SL": {}, "SH": {}, "SN": {},
	}
)

var tagDescriptions = map[string]string{
	"NNG": "general noun",
	"NNP": "proper noun",
	"NNB": "bound noun",
	"NP":  "pronoun",
	"NR":  "numeral",
	"VV":  "verb",
	"VA":  "adjective",
	"VX":  "auxiliary predicate",
	"VCP": "positive copula",
	"VCN": "negative copula",
	"MM":  "determiner",
	"MAG": "general adverb",
	"MAJ": "conjunctive adverb",
	"IC":  "interjection",
	"JKS": "subject case particle",
	"JKC": "complement case particle",
	"JKG": "adnominal case particle",
	"JKO": "object case particle",
	"JKB": "adverbial case particle",
	"JKV": "vocative case particle",
	"JKQ": "quotative case particle",
	"JX":  "auxiliary particle",
	"JC":  "conjunctive particle",
	"EP":  "prefinal ending",
	"EF":  "final ending",
	"EC":  "connective ending",
	"ETN": "nominalizing ending",
	"ETM": "adnominalizing ending",
	"XPN": "noun prefix",
	"XSN": "noun suffix",
	"XSV": "verb suffix",
	"XSA": "adjective suffix",
	"XR":  "root",
	"SF":  "period, question or exclamation mark",
	"SP":  "comma, middle dot, colon or slash",
	"SS":  "quotation mark or bracket",
	"SE":  "ellipsis",
	"SO":  "hyphen, tilde",
	"SW":  "other symbol",
	"SL":  "foreign word",
	"SH":  "Chinese character",
	"SN":  "number",
	"NF":  "presumed noun",
	"NV":  "presumed predicate",
	"NA":  "not analyzable",
}

// newToken converts a decoded pair into a Token. Morphemes in unit form are
// expected to be combined by the caller.
func newToken(morph, tag string) Token {
	t := Token{Morph: morph, Tag: tag, Class: classOf(tag), Description: tagDescriptions[tag]}
	if t.Description == "" {
		t.Description = tag
	}
	return t
}

func classOf(tag string) string {
	switch {
	case inSet(tag, nounTags):
		return ClassNoun
	case inSet(tag, predicateTags):
		return ClassPredicate
	case inSet(tag, modifierTags):
		return ClassModifier
	case inSet(tag, independentTags):
		return ClassIndependent
	case inSet(tag, particleTags):
		return ClassParticle
	case inSet(tag, endingTags):
		return ClassEnding
	case inSet(tag, affixTags):
		return ClassAffix
	case inSet(tag, symbolTags):
		return ClassSymbol
	default:
		return ClassUnknown
	}
}

func inSet(key string, set TagSet) bool {
	_, ok := set[key]
	return ok
}

// --- RESULT VIEWS ---

// PlainText renders the result as "morph/TAG" pairs joined by spaces.
func (r Result) PlainText() string {
	var sb strings.Builder
	for i, t := range r.Tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Morph)
		sb.WriteByte('/')
		sb.WriteString(t.Tag)
	}
	return sb.String()
}

// Nouns returns the morphemes of the noun class, in order.
func (r Result) Nouns() []string {
	var nouns []string
	for _, t := range r.Tokens {
		if t.Class == ClassNoun {
			nouns = append(nouns, t.Morph)
		}
	}
	return nouns
}

// Pairs returns the result as (morph, tag) pairs.
func (r Result) Pairs() []model.Pair {
	pairs := make([]model.Pair, len(r.Tokens))
	for i, t := range r.Tokens {
		pairs[i] = model.Pair{Morph: t.Morph, Tag: t.Tag}
	}
	return pairs
}
