package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// Ledger is the table rules are applied to.
type Ledger interface {
	Schema
	Len() int
	Row(i int) model.Record
	UpdateCell(i int, column string, v any) bool
}

// Outcome counts the rows a run looked at and the rows it changed.
type Outcome struct {
	Considered int
	Updated    int
}

// Engine evaluates one set of rules. Compiled regex patterns are cached for
// the lifetime of the engine.
type Engine struct {
	rules   []Rule
	log     zerolog.Logger
	regexes map[string]*regexp.Regexp
}

// NewEngine returns an engine for rules, tried in order.
func NewEngine(rules []Rule, log zerolog.Logger) *Engine {
	return &Engine{
		rules:   rules,
		log:     log,
		regexes: make(map[string]*regexp.Regexp),
	}
}

// Apply categorizes the rows of l whose Category is empty. Each row takes
// the category and auto-fill values of the first rule it matches. Rows that
// already have a category are never written.
func (e *Engine) Apply(l Ledger) Outcome {
	var pending []int
	for i := 0; i < l.Len(); i++ {
		if l.Row(i).IsUncategorized() {
			pending = append(pending, i)
		}
	}

	out := Outcome{Considered: len(pending)}
	for _, i := range pending {
		rule, ok := e.Match(l.Row(i))
		if !ok {
			continue
		}
		e.log.Debug().
			Int("row", i).
			Str("description", model.String(l.Row(i)[model.ColDescription])).
			Str("category", rule.Category).
			Int("auto_fill", len(rule.AutoFill)).
			Msg("categorizing transaction")

		if rule.Category != "" {
			l.UpdateCell(i, model.ColCategory, rule.Category)
		}
		for _, fill := range rule.AutoFill {
			l.UpdateCell(i, fill.Column, fill.Value)
		}
		out.Updated++
	}
	return out
}

// Match returns the first rule whose conditions all hold for row.
func (e *Engine) Match(row model.Record) (Rule, bool) {
	for _, rule := range e.rules {
		if e.MatchesAll(row, rule.Conditions) {
			return rule, true
		}
	}
	return Rule{}, false
}

// MatchesAll reports whether every condition holds for row.
func (e *Engine) MatchesAll(row model.Record, conditions []Condition) bool {
	for _, c := range conditions {
		if !e.Evaluate(row, c) {
			return false
		}
	}
	return true
}

// Evaluate tests a single condition against row. A missing field, a value
// that cannot be converted, an invalid pattern or an unknown comparator all
// evaluate to false.
func (e *Engine) Evaluate(row model.Record, c Condition) bool {
	v, ok := row.Value(c.Field)
	if !ok {
		return false
	}
	got, want := model.String(v), model.String(c.Value)

	switch c.Comparator {
	case Contains:
		return strings.Contains(strings.ToLower(got), strings.ToLower(want))
	case NotContains:
		return !strings.Contains(strings.ToLower(got), strings.ToLower(want))
	case Equals:
		return got == want
	case NotEquals:
		return got != want
	case StartsWith:
		return strings.HasPrefix(strings.ToLower(got), strings.ToLower(want))
	case EndsWith:
		return strings.HasSuffix(strings.ToLower(got), strings.ToLower(want))
	case Min, Max, Between:
		ok, err := compareNumber(v, c)
		if err != nil {
			e.log.Debug().Err(err).Str("field", c.Field).Str("comparator", c.Comparator.String()).
				Str("value", got).Msg("could not evaluate condition")
			return false
		}
		return ok
	case Regex:
		re := e.compile(want)
		return re != nil && re.MatchString(got)
	default:
		e.log.Warn().Int("comparator", int(c.Comparator)).Msg("unknown comparison type")
		return false
	}
}

func compareNumber(v any, c Condition) (bool, error) {
	n, err := model.ToDecimal(v)
	if err != nil {
		return false, err
	}
	switch c.Comparator {
	case Min:
		lo, err := model.ToDecimal(c.Value)
		if err != nil {
			return false, err
		}
		return n.GreaterThanOrEqual(lo), nil
	case Max:
		hi, err := model.ToDecimal(c.Value)
		if err != nil {
			return false, err
		}
		return n.LessThanOrEqual(hi), nil
	default:
		lo, hi, err := parseBounds(model.String(c.Value))
		if err != nil {
			return false, err
		}
		return n.GreaterThanOrEqual(lo) && n.LessThanOrEqual(hi), nil
	}
}

// parseBounds parses a "lo,hi" range.
func parseBounds(s string) (decimal.Decimal, decimal.Decimal, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("range %q is not of the form lo,hi", s)
	}
	lo, err := model.ToDecimal(parts[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	hi, err := model.ToDecimal(parts[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return lo, hi, nil
}

// compile returns the case-insensitive regexp for pattern, or nil when it
// does not compile. Failures are cached too.
func (e *Engine) compile(pattern string) *regexp.Regexp {
	if re, ok := e.regexes[pattern]; ok {
		return re
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		e.log.Debug().Err(err).Str("pattern", pattern).Msg("invalid regex in rule")
		re = nil
	}
	e.regexes[pattern] = re
	return re
}
