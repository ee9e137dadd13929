package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// shortDateNumFmt is the built-in m/d/yyyy number format.
const shortDateNumFmt = 14

// readCell returns the typed value of the cell at (col, row).
//
// Strings read as string, numbers as float64, numbers in a date format as
// time.Time and empty cells as nil. Booleans, errors and formula strings
// read as their displayed text.
func (w *Workbook) readCell(sheet string, col, row int) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := w.file.GetCellType(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("reading %s!%s: %w", sheet, cell, err)
	}
	raw, err := w.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading %s!%s: %w", sheet, cell, err)
	}
	if raw == "" {
		return nil, nil
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return raw, nil
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "TRUE") {
			return "TRUE", nil
		}
		return "FALSE", nil
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return raw, nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw, nil
	}
	styleID, err := w.file.GetCellStyle(sheet, cell)
	if err == nil && w.isDateStyle(styleID) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return t, nil
		}
	}
	return n, nil
}

// writeCell stores v at (col, row). nil and "" clear the cell; dates get a
// date number format when the cell does not have one.
func (w *Workbook) writeCell(sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	switch x := v.(type) {
	case nil:
		err = w.file.SetCellValue(sheet, cell, nil)
	case string:
		if x == "" {
			err = w.file.SetCellValue(sheet, cell, nil)
		} else {
			err = w.file.SetCellStr(sheet, cell, x)
		}
	case decimal.Decimal:
		err = w.file.SetCellFloat(sheet, cell, x.InexactFloat64(), -1, 64)
	case time.Time:
		err = w.writeDate(sheet, cell, x)
	default:
		err = w.file.SetCellValue(sheet, cell, v)
	}
	if err != nil {
		return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func (w *Workbook) writeDate(sheet, cell string, t time.Time) error {
	styleID, err := w.file.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	if err := w.file.SetCellValue(sheet, cell, t); err != nil {
		return err
	}
	if w.isDateStyle(styleID) {
		return nil
	}
	dated, err := w.withDateFormat(styleID)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(sheet, cell, cell, dated)
}

// withDateFormat returns a style identical to styleID but with a short date
// number format.
func (w *Workbook) withDateFormat(styleID int) (int, error) {
	if id, ok := w.derivedStyle[styleID]; ok {
		return id, nil
	}
	style, err := w.file.GetStyle(styleID)
	if err != nil || style == nil {
		style = &excelize.Style{}
	}
	style.NumFmt = shortDateNumFmt
	style.CustomNumFmt = nil
	style.DecimalPlaces = nil
	id, err := w.file.NewStyle(style)
	if err != nil {
		if id, err = w.file.NewStyle(&excelize.Style{NumFmt: shortDateNumFmt}); err != nil {
			return 0, fmt.Errorf("creating date style: %w", err)
		}
	}
	w.derivedStyle[styleID] = id
	w.dateStyle[id] = true
	return id, nil
}

// isDateStyle reports whether the style formats numbers as dates.
func (w *Workbook) isDateStyle(styleID int) bool {
	if v, ok := w.dateStyle[styleID]; ok {
		return v
	}
	isDate := false
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		} else {
			isDate = isBuiltinDateFormat(style.NumFmt)
		}
	}
	w.dateStyle[styleID] = isDate
	return isDate
}

func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

// isDateFormatCode reports whether a custom number format renders a date.
// Quoted literals, bracketed sections and escaped characters are ignored.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\':
			escaped = true
		default:
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	return strings.ContainsAny(s, "yd")
}
