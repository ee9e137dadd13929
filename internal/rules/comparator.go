package rules

import (
	"sort"
	"strings"
)

// Comparator is the test a condition applies to a ledger value.
type Comparator int

const (
	Contains Comparator = iota + 1
	NotContains
	Equals
	NotEquals
	StartsWith
	EndsWith
	Min
	Max
	Between
	Regex
)

// phrases are the rule column suffixes naming each comparator.
var phrases = map[Comparator]string{
	Contains:    "contains",
	NotContains: "not contains",
	Equals:      "equals",
	NotEquals:   "not equals",
	StartsWith:  "starts with",
	EndsWith:    "ends with",
	Min:         "min",
	Max:         "max",
	Between:     "between",
	Regex:       "regex",
}

// bySuffixLength lists comparators longest phrase first so that
// "not contains" is tried before "contains".
var bySuffixLength = func() []Comparator {
	out := make([]Comparator, 0, len(phrases))
	for c := range phrases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := phrases[out[i]], phrases[out[j]]
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return out[i] < out[j]
	})
	return out
}()

func (c Comparator) String() string {
	if p, ok := phrases[c]; ok {
		return p
	}
	return "unknown"
}

// splitRuleColumn splits a rule column name such as "Description Not
// Contains" into its field and comparator. The comparator phrase matches
// case-insensitively and must be preceded by a space.
func splitRuleColumn(column string) (field string, c Comparator, ok bool) {
	for _, c := range bySuffixLength {
		suffix := " " + phrases[c]
		n := len(column) - len(suffix)
		if n < 0 || !strings.EqualFold(column[n:], suffix) {
			continue
		}
		return strings.TrimSpace(column[:n]), c, true
	}
	return "", 0, false
}
