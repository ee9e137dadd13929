package rules

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashsync-dev/cashsync/internal/model"
)

type update struct {
	row    int
	column string
	value  any
}

// memLedger is an in-memory Ledger that records every write.
type memLedger struct {
	columns []string
	rows    []model.Record
	updates []update
}

func newMemLedger(rows ...model.Record) *memLedger {
	return &memLedger{columns: model.DefaultColumns, rows: rows}
}

func (m *memLedger) HasColumn(column string) bool {
	for _, c := range m.columns {
		if c == column {
			return true
		}
	}
	return false
}

func (m *memLedger) Len() int               { return len(m.rows) }
func (m *memLedger) Row(i int) model.Record { return m.rows[i] }

func (m *memLedger) UpdateCell(i int, column string, v any) bool {
	if !m.HasColumn(column) {
		return false
	}
	m.updates = append(m.updates, update{i, column, v})
	m.rows[i][column] = v
	return true
}

func TestSplitRuleColumn(t *testing.T) {
	tests := []struct {
		column string
		field  string
		cmp    Comparator
		ok     bool
	}{
		{"Description Contains", "Description", Contains, true},
		{"Description Not Contains", "Description", NotContains, true},
		{"Description not contains", "Description", NotContains, true},
		{"Amount Not Equals", "Amount", NotEquals, true},
		{"Amount Equals", "Amount", Equals, true},
		{"Full Description Starts With", "Full Description", StartsWith, true},
		{"Description ENDS WITH", "Description", EndsWith, true},
		{"Amount Min", "Amount", Min, true},
		{"Amount Max", "Amount", Max, true},
		{"Amount Between", "Amount", Between, true},
		{"Description Regex", "Description", Regex, true},
		{"Account", "", 0, false},
		{"Contains", "", 0, false},
		{"Maximum", "", 0, false},
	}
	for _, tt := range tests {
		field, cmp, ok := splitRuleColumn(tt.column)
		assert.Equal(t, tt.ok, ok, tt.column)
		assert.Equal(t, tt.field, field, tt.column)
		assert.Equal(t, tt.cmp, cmp, tt.column)
	}
}

func TestComparatorString(t *testing.T) {
	assert.Equal(t, "not contains", NotContains.String())
	assert.Equal(t, "unknown", Comparator(99).String())
	assert.Equal(t, NotContains, bySuffixLength[0])
}

func TestParseSheet(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs)
	ledger := newMemLedger()

	columns := []string{"Category", "Description Contains", "Amount Max", "Account", "Memo Contains", "Notes"}
	rows := []model.Record{
		{"Category": "Groceries", "Description Contains": "WALMART", "Account": "Checking"},
		{"Category": "Big", "Amount Max": 500.0, "Memo Contains": "x"},
		{"Category": "Orphan", "Account": "Savings"},
		{"Category": nil, "Description Contains": "ATM", "Notes": "ignored"},
	}

	got := ParseSheet("AutoCat", columns, rows, ledger, log)
	require.Len(t, got, 3)

	assert.Equal(t, Rule{
		Category:   "Groceries",
		Conditions: []Condition{{Field: "Description", Comparator: Contains, Value: "WALMART"}},
		AutoFill:   []AutoFill{{Column: "Account", Value: "Checking"}},
	}, got[0])
	assert.Equal(t, []Condition{{Field: "Amount", Comparator: Max, Value: 500.0}}, got[1].Conditions)
	assert.Equal(t, "", got[2].Category)

	assert.Contains(t, logs.String(), "Rule column 'Memo Contains' ignored: 'Memo' not found in Transactions table.")
	assert.Contains(t, logs.String(), "Column 'Notes' in 'AutoCat' sheet is not a valid rule or auto-fill column")
}

func TestParseSheet_RequiresCategory(t *testing.T) {
	var logs bytes.Buffer
	got := ParseSheet("AutoCat", []string{"Description Contains"},
		[]model.Record{{"Description Contains": "X"}}, newMemLedger(), zerolog.New(&logs))
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "must contain a 'Category' column")
}

func TestEvaluate(t *testing.T) {
	e := NewEngine(nil, zerolog.Nop())
	row := model.Record{
		"Description":  "WALMART GROCERY #12",
		"Amount":       -150.0,
		"Account":      "Checking",
		"Check Number": 500.0,
		"Date":         time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"Category":     "",
	}

	tests := []struct {
		name string
		c    Condition
		want bool
	}{
		{"contains case-insensitive", Condition{"Description", Contains, "walmart"}, true},
		{"contains miss", Condition{"Description", Contains, "target"}, false},
		{"not contains", Condition{"Description", NotContains, "target"}, true},
		{"not contains hit", Condition{"Description", NotContains, "Grocery"}, false},
		{"equals exact", Condition{"Account", Equals, "Checking"}, true},
		{"equals is case-sensitive", Condition{"Account", Equals, "checking"}, false},
		{"equals numeric text", Condition{"Check Number", Equals, "500"}, true},
		{"equals numeric value", Condition{"Check Number", Equals, 500.0}, true},
		{"equals compares integral numbers without a fraction", Condition{"Amount", Equals, "-150.0"}, false},
		{"not equals compares integral numbers without a fraction", Condition{"Amount", NotEquals, "-150.0"}, true},
		{"not equals", Condition{"Account", NotEquals, "Savings"}, true},
		{"starts with", Condition{"Description", StartsWith, "wal"}, true},
		{"ends with", Condition{"Description", EndsWith, "#12"}, true},
		{"ends with miss", Condition{"Description", EndsWith, "walmart"}, false},
		{"min", Condition{"Amount", Min, -200.0}, true},
		{"min miss", Condition{"Amount", Min, "-100"}, false},
		{"max", Condition{"Amount", Max, 0.0}, true},
		{"max inclusive", Condition{"Amount", Max, -150.0}, true},
		{"between", Condition{"Amount", Between, "-200,-100"}, true},
		{"between with spaces", Condition{"Amount", Between, " -150 , 0 "}, true},
		{"between miss", Condition{"Amount", Between, "0,10"}, false},
		{"between malformed", Condition{"Amount", Between, "10"}, false},
		{"min non-numeric row value", Condition{"Description", Min, 1.0}, false},
		{"min non-numeric rule value", Condition{"Amount", Min, "lots"}, false},
		{"min on a date", Condition{"Date", Min, 1.0}, false},
		{"regex search", Condition{"Description", Regex, `gro\w+`}, true},
		{"regex anchored", Condition{"Description", Regex, `^grocery`}, false},
		{"regex invalid", Condition{"Description", Regex, `(`}, false},
		{"missing field", Condition{"Institution", Contains, ""}, false},
		{"unknown comparator", Condition{"Description", Comparator(42), "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(row, tt.c))
			assert.Equal(t, tt.want, e.Evaluate(row, tt.c), "evaluation must be repeatable")
		})
	}
}

func TestEvaluate_NaNIsMissing(t *testing.T) {
	e := NewEngine(nil, zerolog.Nop())
	row := model.Record{"Amount": math.NaN()}
	assert.False(t, e.Evaluate(row, Condition{"Amount", NotEquals, "x"}))
}

func TestEngine_RegexCache(t *testing.T) {
	e := NewEngine(nil, zerolog.Nop())
	row := model.Record{"Description": "Uber Trip"}
	assert.True(t, e.Evaluate(row, Condition{"Description", Regex, "uber"}))
	assert.True(t, e.Evaluate(model.Record{"Description": "UBER EATS"}, Condition{"Description", Regex, "uber"}))
	assert.False(t, e.Evaluate(row, Condition{"Description", Regex, "["}))
	assert.Len(t, e.regexes, 2)
	assert.Nil(t, e.regexes["["])
}

func TestMatchesAll(t *testing.T) {
	e := NewEngine(nil, zerolog.Nop())
	row := model.Record{"Description": "SHELL OIL", "Amount": -40.0}
	conds := []Condition{
		{"Description", Contains, "shell"},
		{"Amount", Max, 0.0},
	}
	assert.True(t, e.MatchesAll(row, conds))

	conds = append(conds, Condition{"Amount", Min, 0.0})
	assert.False(t, e.MatchesAll(row, conds))
}

func TestApply_Groceries(t *testing.T) {
	ledger := newMemLedger(model.Record{"Description": "WALMART GROCERY", "Amount": 150.00, "Category": ""})
	rules := []Rule{{
		Category:   "Groceries",
		Conditions: []Condition{{"Description", Contains, "WALMART"}},
	}}

	out := NewEngine(rules, zerolog.Nop()).Apply(ledger)
	assert.Equal(t, Outcome{Considered: 1, Updated: 1}, out)
	assert.Equal(t, "Groceries", ledger.rows[0]["Category"])
}

func TestApply_AmountMaxNoMatch(t *testing.T) {
	ledger := newMemLedger(model.Record{"Description": "TV", "Amount": 600.0, "Category": ""})
	rules := []Rule{{Category: "Small", Conditions: []Condition{{"Amount", Max, 500.0}}}}

	out := NewEngine(rules, zerolog.Nop()).Apply(ledger)
	assert.Equal(t, Outcome{Considered: 1, Updated: 0}, out)
	assert.Equal(t, "", ledger.rows[0]["Category"])
	assert.Empty(t, ledger.updates)
}

func TestApply_FirstMatchWins(t *testing.T) {
	ledger := newMemLedger(model.Record{"Description": "AMAZON PRIME", "Amount": -14.99, "Category": nil})
	rules := []Rule{
		{
			Category:   "Subscriptions",
			Conditions: []Condition{{"Description", Contains, "prime"}},
			AutoFill:   []AutoFill{{Column: "Account", Value: "Card"}},
		},
		{
			Category:   "Shopping",
			Conditions: []Condition{{"Description", Contains, "amazon"}},
			AutoFill:   []AutoFill{{Column: "Institution", Value: "Other"}},
		},
	}

	NewEngine(rules, zerolog.Nop()).Apply(ledger)
	assert.Equal(t, "Subscriptions", ledger.rows[0]["Category"])
	assert.Equal(t, "Card", ledger.rows[0]["Account"])
	assert.NotContains(t, ledger.rows[0], "Institution")
}

func TestApply_SkipsCategorizedRows(t *testing.T) {
	ledger := newMemLedger(
		model.Record{"Description": "COFFEE", "Category": "Dining"},
		model.Record{"Description": "COFFEE", "Category": ""},
		model.Record{"Description": "COFFEE"},
		model.Record{"Description": "COFFEE", "Category": math.NaN()},
	)
	rules := []Rule{{
		Category:   "Coffee",
		Conditions: []Condition{{"Description", Contains, "coffee"}},
		AutoFill:   []AutoFill{{Column: "Account", Value: "Cash"}},
	}}

	out := NewEngine(rules, zerolog.Nop()).Apply(ledger)
	assert.Equal(t, Outcome{Considered: 3, Updated: 3}, out)
	for _, u := range ledger.updates {
		assert.NotEqual(t, 0, u.row, "categorized row must not be written")
	}
	assert.Equal(t, "Dining", ledger.rows[0]["Category"])
}

func TestApply_EmptyCategoryOnlyAutoFills(t *testing.T) {
	ledger := newMemLedger(model.Record{"Description": "TRANSFER", "Category": ""})
	rules := []Rule{{
		Conditions: []Condition{{"Description", Equals, "TRANSFER"}},
		AutoFill:   []AutoFill{{Column: "Account", Value: "Savings"}},
	}}

	out := NewEngine(rules, zerolog.Nop()).Apply(ledger)
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, []update{{0, "Account", "Savings"}}, ledger.updates)
}
