package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// Table is a named Excel table loaded into memory.
//
// The column set is fixed at load time. Reads and writes go through the
// in-memory rows; Workbook.Save writes them back to the sheet.
type Table struct {
	wb    *Workbook
	sheet string
	name  string
	meta  excelize.Table

	firstCol, lastCol int
	headerRow         int
	capacity          int // data rows inside the table range at load time

	columns []string
	index   map[string]int
	rows    []model.Record
	added   []bool // rows[i] was appended since the last flush

	dirty   map[cellRef]struct{}
	dropped map[string]bool
}

type cellRef struct {
	row    int
	column string
}

func (w *Workbook) loadTable(sheet string, meta excelize.Table) (*Table, error) {
	c1, r1, c2, r2, ok := parseRange(meta.Range)
	if !ok {
		return nil, fmt.Errorf("invalid table range %q", meta.Range)
	}

	t := &Table{
		wb:        w,
		sheet:     sheet,
		name:      meta.Name,
		meta:      meta,
		firstCol:  c1,
		lastCol:   c2,
		headerRow: r1,
		capacity:  r2 - r1,
		index:     make(map[string]int),
		dirty:     make(map[cellRef]struct{}),
		dropped:   make(map[string]bool),
	}

	for c := c1; c <= c2; c++ {
		v, err := w.readCell(sheet, c, r1)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(model.String(v))
		t.index[name] = len(t.columns)
		t.columns = append(t.columns, name)
	}

	for r := r1 + 1; r <= r2; r++ {
		rec := make(model.Record, len(t.columns))
		for i, col := range t.columns {
			v, err := w.readCell(sheet, c1+i, r)
			if err != nil {
				return nil, err
			}
			rec[col] = v
		}
		t.rows = append(t.rows, rec)
	}

	// Trailing blank rows are free space for new rows, not transactions.
	for len(t.rows) > 0 && isBlank(t.rows[len(t.rows)-1]) {
		t.rows = t.rows[:len(t.rows)-1]
	}
	t.added = make([]bool, len(t.rows))

	w.log.Debug().
		Str("table", t.name).
		Str("sheet", sheet).
		Str("range", meta.Range).
		Int("rows", len(t.rows)).
		Strs("columns", t.columns).
		Msg("loaded table")
	return t, nil
}

func isBlank(rec model.Record) bool {
	for _, v := range rec {
		if model.String(v) != "" {
			return false
		}
	}
	return true
}

// Name returns the table name as stored in the workbook.
func (t *Table) Name() string { return t.name }

// Sheet returns the worksheet holding the table.
func (t *Table) Sheet() string { return t.sheet }

// Columns returns the declared column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether column is declared by the table.
func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns data row i. The record must not be modified; use UpdateCell.
func (t *Table) Row(i int) model.Record { return t.rows[i] }

// Rows returns all data rows. The records must not be modified.
func (t *Table) Rows() []model.Record { return t.rows }

// UpdateCell sets column of data row i to v. Unknown columns and rows are
// logged and ignored.
func (t *Table) UpdateCell(i int, column string, v any) bool {
	if _, ok := t.index[column]; !ok {
		t.wb.log.Warn().Str("table", t.name).Str("column", column).Msg("ignoring update to unknown column")
		return false
	}
	if i < 0 || i >= len(t.rows) {
		t.wb.log.Warn().Str("table", t.name).Int("row", i).Msg("ignoring update to row outside the table")
		return false
	}
	t.rows[i][column] = v
	t.dirty[cellRef{row: i, column: column}] = struct{}{}
	return true
}

// DateColumn returns the column used to order rows chronologically, or ""
// when the table has none.
func (t *Table) DateColumn() string {
	if t.HasColumn(model.ColDate) {
		return model.ColDate
	}
	for _, col := range t.columns {
		if strings.EqualFold(col, model.ColDate) {
			return col
		}
	}
	for _, col := range t.columns {
		if strings.EqualFold(col, model.ColDateAdded) {
			continue
		}
		if strings.Contains(strings.ToLower(col), "date") {
			return col
		}
	}
	return ""
}

// AppendRows adds records to the table and returns how many were added.
//
// New rows are ordered newest first and merged ahead of the first existing
// row with an older date; rows without a date sort last. Without a date
// column the new rows go on top. Values for undeclared columns are dropped.
// Existing rows are not rewritten: Save inserts sheet rows for the new ones.
func (t *Table) AppendRows(records []model.Record) int {
	if len(records) == 0 {
		return 0
	}
	incoming := make([]model.Record, 0, len(records))
	for _, rec := range records {
		incoming = append(incoming, t.conform(rec))
	}

	dateCol := t.DateColumn()
	if dateCol != "" {
		sort.SliceStable(incoming, func(a, b int) bool {
			da, okA := model.AsDate(incoming[a][dateCol])
			db, okB := model.AsDate(incoming[b][dateCol])
			return okA && (!okB || da.After(db))
		})
	}

	merged := make([]model.Record, 0, len(t.rows)+len(incoming))
	added := make([]bool, 0, cap(merged))
	moved := make([]int, len(t.rows))
	next := 0
	take := func() {
		moved[next] = len(merged)
		merged = append(merged, t.rows[next])
		added = append(added, t.added[next])
		next++
	}
	for _, rec := range incoming {
		if dateCol != "" {
			d, ok := model.AsDate(rec[dateCol])
			for next < len(t.rows) && !olderThan(t.rows[next][dateCol], d, ok) {
				take()
			}
		}
		merged = append(merged, rec)
		added = append(added, true)
	}
	for next < len(t.rows) {
		take()
	}

	dirty := make(map[cellRef]struct{}, len(t.dirty))
	for ref := range t.dirty {
		dirty[cellRef{row: moved[ref.row], column: ref.column}] = struct{}{}
	}
	t.rows, t.added, t.dirty = merged, added, dirty
	return len(incoming)
}

// olderThan reports whether an existing row dated existing sorts after a new
// row dated d. Undated existing rows are the oldest; an undated new row is
// older than everything.
func olderThan(existing any, d time.Time, dated bool) bool {
	if !dated {
		return false
	}
	e, ok := model.AsDate(existing)
	return !ok || e.Before(d)
}

func (t *Table) conform(rec model.Record) model.Record {
	out := make(model.Record, len(t.columns))
	for _, col := range t.columns {
		out[col] = rec[col]
	}
	for col := range rec {
		if _, ok := t.index[col]; ok || t.dropped[col] {
			continue
		}
		t.dropped[col] = true
		t.wb.log.Warn().Str("table", t.name).Str("column", col).Msg("dropping values for column not in table")
	}
	return out
}
