// Package dedup filters imported transactions that already exist in the
// ledger.
package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// descriptionPrefix is the number of description characters in a key.
const descriptionPrefix = 20

// Key returns the identity key of a transaction: its calendar date, its
// amount to two decimals and the first characters of its description.
//
// The raw bank description is preferred over the editable one. Values that
// cannot be normalized contribute their text as is.
func Key(rec model.Record) string {
	return normalizeDate(rec) + "|" + normalizeAmount(rec) + "|" + normalizeDescription(rec)
}

func normalizeDate(rec model.Record) string {
	v, ok := rec.Value(model.ColDate)
	if !ok {
		return ""
	}
	if d, ok := model.AsDate(v); ok {
		return d.Format(model.DateLayout)
	}
	return model.String(v)
}

func normalizeAmount(rec model.Record) string {
	v, ok := rec.Value(model.ColAmount)
	if !ok {
		return ""
	}
	if d, err := model.ToDecimal(v); err == nil {
		return d.StringFixed(2)
	}
	return model.String(v)
}

func normalizeDescription(rec model.Record) string {
	v, ok := rec.Value(model.ColFullDescription)
	if !ok {
		v, _ = rec.Value(model.ColDescription)
	}
	s := strings.TrimSpace(model.String(v))
	if utf8.RuneCountInString(s) <= descriptionPrefix {
		return s
	}
	return string([]rune(s)[:descriptionPrefix])
}

// Result is the outcome of Filter.
type Result struct {
	Kept       []model.Record
	Duplicates int
}

// Filter returns the candidates whose keys appear neither in existing nor
// earlier in candidates. Order is preserved.
func Filter(existing, candidates []model.Record) Result {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, rec := range existing {
		seen[Key(rec)] = struct{}{}
	}

	var res Result
	for _, rec := range candidates {
		k := Key(rec)
		if _, dup := seen[k]; dup {
			res.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		res.Kept = append(res.Kept, rec)
	}
	return res
}
