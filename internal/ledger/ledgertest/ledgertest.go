// Package ledgertest writes small Excel ledgers for tests.
package ledgertest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cashsync-dev/cashsync/internal/model"
)

// Ledger describes a workbook to build.
type Ledger struct {
	Sheet   string // default "Ledger"
	Table   string // default "Transactions"; "-" writes the data without a table
	Columns []string
	Rows    [][]any

	RulesSheet  string // default "AutoCat" when RuleColumns is set
	RuleColumns []string
	Rules       [][]any
}

// Build writes l to name inside dir and returns the file path.
func Build(t testing.TB, dir, name string, l Ledger) string {
	t.Helper()

	if l.Sheet == "" {
		l.Sheet = "Ledger"
	}
	if l.Table == "" {
		l.Table = "Transactions"
	}
	if l.Columns == nil {
		l.Columns = model.DefaultColumns
	}

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", l.Sheet))

	writeGrid(t, f, l.Sheet, l.Columns, l.Rows)
	if l.Table != "-" {
		// An Excel table always has at least one data row.
		last := max(len(l.Rows), 1) + 1
		end, err := excelize.CoordinatesToCellName(len(l.Columns), last)
		require.NoError(t, err)
		require.NoError(t, f.AddTable(l.Sheet, &excelize.Table{
			Range:     "A1:" + end,
			Name:      l.Table,
			StyleName: "TableStyleMedium2",
		}))
	}

	if l.RuleColumns != nil {
		if l.RulesSheet == "" {
			l.RulesSheet = "AutoCat"
		}
		_, err := f.NewSheet(l.RulesSheet)
		require.NoError(t, err)
		writeGrid(t, f, l.RulesSheet, l.RuleColumns, l.Rules)
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeGrid(t testing.TB, f *excelize.File, sheet string, header []string, rows [][]any) {
	t.Helper()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headerRow))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
}

// Cell returns the formatted value of a cell in the saved workbook.
func Cell(t testing.TB, path, sheet, cell string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue(sheet, cell)
	require.NoError(t, err)
	return v
}

// Column returns the formatted values of column (1-based) from row 2 down to
// the last row of the sheet.
func Column(t testing.TB, path, sheet string, column int) []string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	var out []string
	for _, r := range rows[1:] {
		if column-1 < len(r) {
			out = append(out, r[column-1])
		} else {
			out = append(out, "")
		}
	}
	return out
}

// TableRange returns the range of the named table in the saved workbook.
func TableRange(t testing.TB, path, sheet, name string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	tables, err := f.GetTables(sheet)
	require.NoError(t, err)
	for _, tbl := range tables {
		if tbl.Name == name {
			return tbl.Range
		}
	}
	t.Fatalf("table %s not found on %s", name, sheet)
	return ""
}

// ReplaceWithDir swaps the file at path for an empty directory, so that a
// workbook already read from path fails to save.
func ReplaceWithDir(t testing.TB, path string) {
	t.Helper()
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))
}
