// Package csvfile reads bank CSV exports into header-keyed rows.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how a CSV export is read.
type Options struct {
	// SkipLines is the number of preamble lines before the header row.
	SkipLines int
}

// Row is one data row keyed by trimmed header name.
type Row struct {
	Line   int // 1-based line of the row in the source file
	Fields map[string]string
}

// Get returns the trimmed value of column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// File is a parsed CSV export.
type File struct {
	Preamble []string
	Header   []string
	Rows     []Row
}

// ReadFile opens path and reads it with opts.
func ReadFile(path string, opts Options) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CSV file: %w", err)
	}
	return parse(data, opts)
}

// Read reads a CSV export from r.
func Read(r io.Reader, opts Options) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return parse(data, opts)
}

func parse(data []byte, opts Options) (*File, error) {
	data, err := decode(data)
	if err != nil {
		return nil, err
	}

	f := &File{}
	line := 0
	for i := 0; i < opts.SkipLines && len(data) > 0; i++ {
		end := bytes.IndexByte(data, '\n')
		if end < 0 {
			end = len(data) - 1
		}
		f.Preamble = append(f.Preamble, strings.TrimRight(string(data[:end+1]), "\r\n"))
		data = data[end+1:]
		line++
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	f.Header = header

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if blank(rec) {
			continue
		}
		rowLine, _ := cr.FieldPos(0)
		fields := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				fields[h] = rec[i]
			} else {
				fields[h] = ""
			}
		}
		f.Rows = append(f.Rows, Row{Line: line + rowLine, Fields: fields})
	}
	return f, nil
}

// decode returns data as UTF-8, falling back to Windows-1252 for exports
// that are not valid UTF-8.
func decode(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding CSV as Windows-1252: %w", err)
	}
	return out, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// HasColumn reports whether the header contains column.
func (f *File) HasColumn(column string) bool {
	for _, h := range f.Header {
		if h == column {
			return true
		}
	}
	return false
}

// Require checks that every expected column is present in the header.
func (f *File) Require(expected []string) error {
	var missing []string
	for _, col := range expected {
		if !f.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Missing: missing, Available: f.Header}
}

// MissingColumnsError reports required columns absent from a CSV export.
type MissingColumnsError struct {
	Missing   []string
	Available []string
}

func (e *MissingColumnsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CSV file is missing required columns: %s\n", strings.Join(e.Missing, ", "))
	fmt.Fprintf(&b, "Available columns: %s\n", strings.Join(e.Available, ", "))
	b.WriteString("This might be because:\n")
	b.WriteString("  - the file is from a different bank than the one selected\n")
	b.WriteString("  - the bank has changed its export format\n")
	b.WriteString("  - the file was not exported correctly")
	return b.String()
}
