package ledger

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// flush writes staged changes to the sheet. Existing rows are shifted with
// their styles and formulas to make room for appended rows; only appended
// rows and updated cells are written.
func (t *Table) flush() error {
	appended := 0
	for _, a := range t.added {
		if a {
			appended++
		}
	}
	if appended == 0 && len(t.dirty) == 0 {
		return nil
	}

	if appended > 0 {
		if err := t.placeRows(); err != nil {
			return err
		}
	}

	for ref := range t.dirty {
		if t.added[ref.row] {
			continue
		}
		if err := t.writeValue(ref.row, ref.column); err != nil {
			return err
		}
	}
	for i, a := range t.added {
		if !a {
			continue
		}
		for _, col := range t.columns {
			if err := t.writeValue(i, col); err != nil {
				return err
			}
		}
	}

	t.added = make([]bool, len(t.rows))
	t.dirty = make(map[cellRef]struct{})
	return nil
}

// placeRows gives every appended row its own sheet row. Rows appended after
// the last existing row fill the spare rows at the bottom of the table and
// then grow it; the others are inserted above the existing row they precede.
// New sheet rows take the style of a neighbouring row. The table range and
// whole-column conditional formats and data validations are stretched over
// the result.
func (t *Table) placeRows() error {
	existing := 0
	for _, a := range t.added {
		if !a {
			existing++
		}
	}
	// before[k] counts the rows appended ahead of existing row k; before[existing]
	// those after the last one.
	before := make([]int, existing+1)
	pos := 0
	for _, a := range t.added {
		if a {
			before[pos]++
		} else {
			pos++
		}
	}

	oldLast := t.headerRow + t.capacity
	inserted := len(t.rows) - existing - before[existing]
	capacity := max(t.capacity+inserted, len(t.rows))
	newLast := t.headerRow + capacity

	rules, err := t.detachColumnRules(oldLast)
	if err != nil {
		return err
	}

	if grow := before[existing] - (t.capacity - existing); grow > 0 && t.capacity > 0 {
		if err := t.copyRowStyle(oldLast, oldLast+1, oldLast+grow); err != nil {
			return err
		}
	}

	// Bottom up, so the sheet rows of existing rows above are still unshifted.
	for k := existing - 1; k >= 0; k-- {
		n := before[k]
		if n == 0 {
			continue
		}
		at := t.headerRow + 1 + k
		if err := t.wb.file.InsertRows(t.sheet, at, n); err != nil {
			return fmt.Errorf("inserting %d rows at row %d: %w", n, at, err)
		}
		src := at - 1
		if k == 0 {
			src = at + n
		}
		if err := t.copyRowStyle(src, at, at+n-1); err != nil {
			return err
		}
	}

	if newLast != oldLast {
		if err := t.resize(newLast); err != nil {
			return err
		}
	}
	if err := t.attachColumnRules(rules, newLast); err != nil {
		return err
	}
	t.capacity = capacity
	return nil
}

func (t *Table) writeValue(i int, column string) error {
	col := t.firstCol + t.index[column]
	return t.wb.writeCell(t.sheet, col, t.headerRow+1+i, t.rows[i][column])
}

// copyRowStyle applies the style of each cell in row src to rows from..to
// of the same column.
func (t *Table) copyRowStyle(src, from, to int) error {
	f := t.wb.file
	for c := t.firstCol; c <= t.lastCol; c++ {
		srcCell, err := excelize.CoordinatesToCellName(c, src)
		if err != nil {
			return err
		}
		styleID, err := f.GetCellStyle(t.sheet, srcCell)
		if err != nil {
			return fmt.Errorf("reading style of %s: %w", srcCell, err)
		}
		top, _ := excelize.CoordinatesToCellName(c, from)
		bottom, _ := excelize.CoordinatesToCellName(c, to)
		if err := f.SetCellStyle(t.sheet, top, bottom, styleID); err != nil {
			return fmt.Errorf("styling %s:%s: %w", top, bottom, err)
		}
	}
	return nil
}

// resize recreates the table over the new range, keeping its name, style
// and display flags.
func (t *Table) resize(newLast int) error {
	topLeft, _ := excelize.CoordinatesToCellName(t.firstCol, t.headerRow)
	bottomRight, _ := excelize.CoordinatesToCellName(t.lastCol, newLast)

	meta := t.meta
	meta.Range = topLeft + ":" + bottomRight
	if err := t.wb.file.DeleteTable(t.meta.Name); err != nil {
		return fmt.Errorf("removing table %s: %w", t.meta.Name, err)
	}
	if err := t.wb.file.AddTable(t.sheet, &meta); err != nil {
		return fmt.Errorf("recreating table %s over %s: %w", meta.Name, meta.Range, err)
	}
	t.wb.log.Info().Str("table", t.name).Str("from", t.meta.Range).Str("to", meta.Range).Msg("expanded table range")
	t.meta = meta
	return nil
}

// columnRules are the conditional formats and data validations covering whole
// table columns, detached while rows are inserted.
type columnRules struct {
	formats     map[string][]excelize.ConditionalFormatOptions
	validations []*excelize.DataValidation
}

func (t *Table) detachColumnRules(oldLast int) (columnRules, error) {
	f := t.wb.file
	rules := columnRules{formats: make(map[string][]excelize.ConditionalFormatOptions)}

	formats, err := f.GetConditionalFormats(t.sheet)
	if err != nil {
		return rules, fmt.Errorf("reading conditional formats: %w", err)
	}
	for ref, opts := range formats {
		if !t.coversColumns(ref, oldLast) {
			continue
		}
		if err := f.UnsetConditionalFormat(t.sheet, ref); err != nil {
			return rules, fmt.Errorf("removing conditional format %s: %w", ref, err)
		}
		rules.formats[ref] = opts
	}

	validations, err := f.GetDataValidations(t.sheet)
	if err != nil {
		return rules, fmt.Errorf("reading data validations: %w", err)
	}
	for _, dv := range validations {
		if !t.coversColumns(dv.Sqref, oldLast) {
			continue
		}
		if err := f.DeleteDataValidation(t.sheet, dv.Sqref); err != nil {
			return rules, fmt.Errorf("removing data validation %s: %w", dv.Sqref, err)
		}
		rules.validations = append(rules.validations, dv)
	}
	return rules, nil
}

func (t *Table) attachColumnRules(rules columnRules, newLast int) error {
	f := t.wb.file
	for ref, opts := range rules.formats {
		extended := t.stretchSqref(ref, newLast)
		if err := f.SetConditionalFormat(t.sheet, extended, opts); err != nil {
			return fmt.Errorf("setting conditional format %s: %w", extended, err)
		}
		t.wb.log.Debug().Str("from", ref).Str("to", extended).Msg("extended conditional format")
	}
	for _, dv := range rules.validations {
		ref := dv.Sqref
		dv.Sqref = t.stretchSqref(ref, newLast)
		if err := f.AddDataValidation(t.sheet, dv); err != nil {
			return fmt.Errorf("adding data validation %s: %w", dv.Sqref, err)
		}
		t.wb.log.Debug().Str("from", ref).Str("to", dv.Sqref).Msg("extended data validation")
	}
	return nil
}

// coversColumns reports whether every range in a space-separated reference
// list spans exactly one table column from the first data row through
// oldLast.
func (t *Table) coversColumns(sqref string, oldLast int) bool {
	parts := strings.Fields(sqref)
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		c1, r1, c2, r2, ok := parseRange(part)
		if !ok || c1 != c2 || c1 < t.firstCol || c2 > t.lastCol {
			return false
		}
		if r1 != t.headerRow+1 || r2 != oldLast {
			return false
		}
	}
	return true
}

// stretchSqref moves the end of each range in sqref to newLast.
func (t *Table) stretchSqref(sqref string, newLast int) string {
	parts := strings.Fields(sqref)
	for i, part := range parts {
		c1, r1, c2, _, ok := parseRange(part)
		if !ok {
			continue
		}
		top, _ := excelize.CoordinatesToCellName(c1, r1)
		bottom, _ := excelize.CoordinatesToCellName(c2, newLast)
		parts[i] = top + ":" + bottom
	}
	return strings.Join(parts, " ")
}

// parseRange parses "A1:C9" or "B4" into column/row coordinates.
func parseRange(ref string) (c1, r1, c2, r2 int, ok bool) {
	ref = strings.ReplaceAll(ref, "$", "")
	from, to, found := strings.Cut(ref, ":")
	if !found {
		to = from
	}
	var err error
	if c1, r1, err = excelize.CellNameToCoordinates(from); err != nil {
		return 0, 0, 0, 0, false
	}
	if c2, r2, err = excelize.CellNameToCoordinates(to); err != nil {
		return 0, 0, 0, 0, false
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return c1, r1, c2, r2, true
}
