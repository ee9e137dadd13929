package ledger

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is wrapped by TableNotFoundError.
var ErrTableNotFound = errors.New("table not found")

// TableNotFoundError reports a workbook without the named ledger table.
// Its message walks the user through creating the table in Excel.
type TableNotFoundError struct {
	Name string
	Path string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf(`no '%[1]s' table found in %[2]s

How to fix this:
  1. Open your Excel file
  2. Select your transaction data (including headers)
  3. Go to Insert > Table (or press Ctrl+T)
  4. Make sure "My table has headers" is checked
  5. Click OK
  6. Right-click the table and select "Table Design"
  7. In the "Table Name" box, change the name to: %[1]s
  8. Save your file

The table name must be exactly '%[1]s' and the table must include column headers.`, e.Name, e.Path)
}

func (e *TableNotFoundError) Unwrap() error { return ErrTableNotFound }
