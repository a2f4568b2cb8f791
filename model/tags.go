package model

import "fmt"

// Tags the analyzer itself emits or relies on.
const (
	TagNNP = "NNP" // default tag of user dictionary entries
	TagSL  = "SL"  // Latin and other foreign-letter runs
	TagSN  = "SN"  // digit runs
	TagSH  = "SH"  // Chinese-script runs
	TagSW  = "SW"  // other symbols
	TagNA  = "NA"  // not analyzable
	TagBOS = "BOS" // lattice start sink
	TagEOS = "EOS" // sentence and space boundary sinks
)

// sejongTags - the Sejong tag set in table order. Positions are the tag ids,
// so new tags may only be appended.
var sejongTags = []string{
	TagBOS, TagEOS,
	"NNG", "NNP", "NNB", "NP", "NR",
	"VV", "VA", "VX", "VCP", "VCN",
	"MM", "MAG", "MAJ",
	"IC",
	"JKS", "JKC", "JKG", "JKO", "JKB", "JKV", "JKQ", "JX", "JC",
	"EP", "EF", "EC", "ETN", "ETM",
	"XPN", "XSN", "XSV", "XSA", "XR",
	"SF", "SP", "SS", "SE", "SO", "SW", "SL", "SH", "SN",
	"NF", "NV", "NA",
}

// TagTable - bidirectional mapping between tag names and stable integer ids.
type TagTable struct {
	names []string
	ids   map[string]int
}

// DefaultTagTable returns the Sejong tag table.
func DefaultTagTable() *TagTable {
	t, _ := NewTagTable(sejongTags)
	return t
}

// NewTagTable builds a table from names in id order.
func NewTagTable(names []string) (*TagTable, error) {
	t := &TagTable{names: make([]string, len(names)), ids: make(map[string]int, len(names))}
	for i, name := range names {
		if _, dup := t.ids[name]; dup {
			return nil, fmt.Errorf("duplicate tag %q", name)
		}
		t.names[i] = name
		t.ids[name] = i
	}
	for _, required := range []string{TagBOS, TagEOS, TagNNP, TagSL, TagSN, TagSH, TagSW, TagNA} {
		if _, ok := t.ids[required]; !ok {
			return nil, fmt.Errorf("tag table lacks required tag %q", required)
		}
	}
	return t, nil
}

// ID returns the id of name.
func (t *TagTable) ID(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// MustID is ID for the tags NewTagTable guarantees to exist.
func (t *TagTable) MustID(name string) int {
	id, ok := t.ids[name]
	if !ok {
		panic(fmt.Sprintf("unknown tag %q", name))
	}
	return id
}

// Name returns the name of id, or "" for an unknown id.
func (t *TagTable) Name(id int) string {
	if id < 0 || id >= len(t.names) {
		return ""
	}
	return t.names[id]
}

// Names returns the tag names in id order.
func (t *TagTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Len returns the number of tags.
func (t *TagTable) Len() int {
	return len(t.names)
}
