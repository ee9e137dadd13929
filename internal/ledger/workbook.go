// Package ledger reads and writes the spreadsheet ledger: a named Excel
// table of transactions plus free-form worksheets such as the rule sheet.
//
// Changes are staged in memory and written to the file once by Save.
package ledger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// Workbook is an open ledger file.
type Workbook struct {
	path   string
	file   *excelize.File
	log    zerolog.Logger
	tables []*Table
	closed bool

	dateStyle    map[int]bool // style id -> has a date number format
	derivedStyle map[int]int  // style id -> copy of it with a date number format
}

// Open opens the workbook at path.
func Open(path string, log zerolog.Logger) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &Workbook{
		path:         path,
		file:         f,
		log:          log.With().Str("workbook", path).Logger(),
		dateStyle:    make(map[int]bool),
		derivedStyle: make(map[int]int),
	}, nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string { return w.path }

// Table loads the table called name. Table names match case-insensitively.
// A missing table yields a *TableNotFoundError.
func (w *Workbook) Table(name string) (*Table, error) {
	for _, t := range w.tables {
		if strings.EqualFold(t.name, name) {
			return t, nil
		}
	}
	for _, sheet := range w.file.GetSheetList() {
		tables, err := w.file.GetTables(sheet)
		if err != nil {
			w.log.Debug().Err(err).Str("sheet", sheet).Msg("skipping sheet")
			continue
		}
		for _, meta := range tables {
			if !strings.EqualFold(meta.Name, name) {
				continue
			}
			t, err := w.loadTable(sheet, meta)
			if err != nil {
				return nil, fmt.Errorf("loading table %s: %w", meta.Name, err)
			}
			w.tables = append(w.tables, t)
			return t, nil
		}
	}
	return nil, &TableNotFoundError{Name: name, Path: w.path}
}

// SheetData is the content of a plain worksheet whose first row is a header.
type SheetData struct {
	Name    string
	Columns []string
	Rows    []model.Record
}

// Sheet reads the worksheet called name (case-insensitive). It reports false
// when no such sheet exists.
func (w *Workbook) Sheet(name string) (*SheetData, bool, error) {
	var sheet string
	for _, s := range w.file.GetSheetList() {
		if strings.EqualFold(s, name) {
			sheet = s
			break
		}
	}
	if sheet == "" {
		return nil, false, nil
	}

	raw, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, false, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	data := &SheetData{Name: sheet}
	if len(raw) == 0 {
		return data, true, nil
	}

	width := 0
	for _, r := range raw {
		width = max(width, len(r))
	}
	for c := 1; c <= len(raw[0]); c++ {
		v, err := w.readCell(sheet, c, 1)
		if err != nil {
			return nil, false, err
		}
		data.Columns = append(data.Columns, strings.TrimSpace(model.String(v)))
	}

	for r := 2; r <= len(raw); r++ {
		rec := make(model.Record, len(data.Columns))
		empty := true
		for c := 1; c <= min(width, len(data.Columns)); c++ {
			col := data.Columns[c-1]
			if col == "" {
				continue
			}
			v, err := w.readCell(sheet, c, r)
			if err != nil {
				return nil, false, err
			}
			if v != nil {
				empty = false
			}
			rec[col] = v
		}
		if !empty {
			data.Rows = append(data.Rows, rec)
		}
	}
	return data, true, nil
}

// Save writes staged table changes and saves the file. The workbook is
// closed afterwards whether or not saving succeeded.
func (w *Workbook) Save() (err error) {
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	for _, t := range w.tables {
		if err := t.flush(); err != nil {
			return fmt.Errorf("writing table %s: %w", t.name, err)
		}
	}
	if err := w.file.Save(); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	w.log.Debug().Msg("workbook saved")
	return nil
}

// Close releases the workbook without saving. It is safe to call twice.
func (w *Workbook) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing workbook %s: %w", w.path, err)
	}
	return nil
}
