// Package export drains streamed query results into flat-file formats
// (CSV, JSON Lines, XLSX, PDF).
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	dbmysql "github.com/ezewer/bfx-facs-db-mysql"
)

// RowIterator is the minimal pull-based row sequence Export consumes.
// *dbmysql.RowStream satisfies it.
type RowIterator interface {
	Columns() []string
	Next() bool
	Row() []interface{}
	Err() error
}

var _ RowIterator = (*dbmysql.RowStream)(nil)

// RowEncoder is a format-specific sink for exported rows.
type RowEncoder interface {
	// WriteHeader writes the column headers. Called exactly once, first.
	WriteHeader(columns []string) error

	// WriteRow writes one row; its length matches the header length.
	WriteRow(values []interface{}) error

	// Flush writes any buffered output to the underlying writer.
	Flush() error

	// Close flushes and releases encoder resources.
	io.Closer
}

// NewEncoder returns the encoder for a format name. Unknown formats fall
// back to CSV.
func NewEncoder(format string, w io.Writer) RowEncoder {
	switch format {
	case "json":
		return NewJSONEncoder(w)
	case "xlsx", "excel":
		return NewExcelEncoder(w)
	case "pdf":
		return NewPDFEncoder(w)
	default:
		return NewCSVEncoder(w)
	}
}

// Export drains every row of it into enc and reports how many rows were
// written. The iterator's own cleanup (releasing or destroying its
// session) stays with the caller.
func Export(it RowIterator, enc RowEncoder) (int64, error) {
	if err := enc.WriteHeader(it.Columns()); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	var rows int64
	for it.Next() {
		if err := enc.WriteRow(it.Row()); err != nil {
			return rows, fmt.Errorf("write row: %w", err)
		}
		rows++
	}
	if err := it.Err(); err != nil {
		return rows, fmt.Errorf("row stream: %w", err)
	}

	if err := enc.Flush(); err != nil {
		return rows, fmt.Errorf("flush: %w", err)
	}
	return rows, nil
}

// formatValue renders a scanned cell as text. With the facility's
// fidelity defaults most cells arrive as strings already; the remaining
// cases cover drivers configured otherwise.
func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprint(val)
	}
}

// sanitizeCell guards spreadsheet consumers against formula injection:
// cells starting with =, +, - or @ get a leading quote.
func sanitizeCell(s string) string {
	if len(s) > 0 {
		switch s[0] {
		case '=', '+', '-', '@':
			return "'" + s
		}
	}
	return s
}
