// Package rules parses categorization rules from the rule sheet and applies
// them to uncategorized ledger rows.
//
// Text comparators compare both sides as rendered by model.String. Integral
// numbers render without a fractional part, so a cell holding 150.0 equals
// the rule value "150" and does not equal "150.0".
package rules

import (
	"github.com/rs/zerolog"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// CategoryColumn is the rule sheet column holding each rule's category.
const CategoryColumn = "Category"

// Condition tests one ledger field.
type Condition struct {
	Field      string
	Comparator Comparator
	Value      any
}

// AutoFill is a value written to a ledger column when a rule matches.
type AutoFill struct {
	Column string
	Value  any
}

// Rule assigns Category and AutoFill values to rows matching every
// condition. An empty Category leaves the row's category untouched.
type Rule struct {
	Category   string
	Conditions []Condition
	AutoFill   []AutoFill
}

// Schema is the ledger column set rules are validated against.
type Schema interface {
	HasColumn(column string) bool
}

// ParseSheet parses the rows of the rule sheet called sheet whose header is
// columns. Rules without conditions are discarded. A sheet without a
// Category column yields no rules.
func ParseSheet(sheet string, columns []string, rows []model.Record, schema Schema, log zerolog.Logger) []Rule {
	hasCategory := false
	for _, c := range columns {
		if c == CategoryColumn {
			hasCategory = true
			break
		}
	}
	if !hasCategory {
		log.Error().Msgf("The '%s' sheet must contain a '%s' column.", sheet, CategoryColumn)
		return nil
	}

	p := &parser{sheet: sheet, schema: schema, log: log, warned: make(map[string]bool)}
	var out []Rule
	for i, row := range rows {
		rule := p.parseRow(columns, row)
		if len(rule.Conditions) == 0 {
			log.Debug().Int("rule", i+1).Msg("skipping rule without conditions")
			continue
		}
		out = append(out, rule)
	}
	return out
}

type parser struct {
	sheet  string
	schema Schema
	log    zerolog.Logger
	warned map[string]bool
}

func (p *parser) parseRow(columns []string, row model.Record) Rule {
	var rule Rule
	if v, ok := row.Value(CategoryColumn); ok {
		rule.Category = model.String(v)
	}

	for _, col := range columns {
		if col == "" || col == CategoryColumn {
			continue
		}
		value, ok := row.Value(col)
		if !ok {
			continue
		}

		if field, cmp, ok := splitRuleColumn(col); ok {
			if p.schema.HasColumn(field) {
				rule.Conditions = append(rule.Conditions, Condition{Field: field, Comparator: cmp, Value: value})
				continue
			}
			p.warnOnce("rule:"+col, "Rule column '%s' ignored: '%s' not found in Transactions table.", col, field)
		}

		if p.schema.HasColumn(col) {
			rule.AutoFill = append(rule.AutoFill, AutoFill{Column: col, Value: value})
			continue
		}
		p.warnOnce("fill:"+col, "Column '%s' in '%s' sheet is not a valid rule or auto-fill column and will be ignored.", col, p.sheet)
	}
	return rule
}

func (p *parser) warnOnce(key, format string, args ...any) {
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	p.log.Warn().Msgf(format, args...)
}
