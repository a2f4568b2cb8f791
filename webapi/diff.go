package webapi

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffOp - one aligned stretch of two analyses.
type DiffOp struct {
	Op   string   `json:"op"` // equal, replace, delete or insert
	Src  []string `json:"src"`
	Dest []string `json:"dest"`
}

var opNames = map[byte]string{
	'e': "equal",
	'r': "replace",
	'd': "delete",
	'i': "insert",
}

// DiffAnalyses aligns two plain-text analyses morpheme by morpheme.
func DiffAnalyses(src, dest string) []DiffOp {
	a, b := strings.Fields(src), strings.Fields(dest)
	matcher := difflib.NewMatcher(a, b)
	codes := matcher.GetOpCodes()
	ops := make([]DiffOp, 0, len(codes))
	for _, c := range codes {
		ops = append(ops, DiffOp{
			Op:   opNames[c.Tag],
			Src:  a[c.I1:c.I2],
			Dest: b[c.J1:c.J2],
		})
	}
	return ops
}

// Changed reports whether any op differs.
func Changed(ops []DiffOp) bool {
	for _, op := range ops {
		if op.Op != "equal" {
			return true
		}
	}
	return false
}
