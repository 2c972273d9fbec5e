package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// excelMaxRows is the hard worksheet row limit in the XLSX format.
const excelMaxRows = 1048576

// ExcelEncoder streams rows into an XLSX worksheet via the excelize
// stream writer, keeping memory flat for large exports.
type ExcelEncoder struct {
	f      *excelize.File
	sw     *excelize.StreamWriter
	w      io.Writer
	rowIdx int
	err    error
}

// NewExcelEncoder creates an XLSX encoder writing to w.
func NewExcelEncoder(w io.Writer) *ExcelEncoder {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		return &ExcelEncoder{err: err}
	}
	return &ExcelEncoder{f: f, sw: sw, w: w, rowIdx: 1}
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	if e.err != nil {
		return e.err
	}
	row := make([]interface{}, len(columns))
	for i, col := range columns {
		row[i] = col
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) WriteRow(values []interface{}) error {
	if e.err != nil {
		return e.err
	}
	if e.rowIdx > excelMaxRows {
		e.err = fmt.Errorf("excel row limit exceeded (%d rows)", excelMaxRows)
		return e.err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = sanitizeCell(formatValue(v))
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) setRow(row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		e.err = err
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		e.err = err
		return err
	}
	e.rowIdx++
	return nil
}

// Flush finalizes the stream writer and writes the workbook to the
// underlying writer.
func (e *ExcelEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.sw.Flush(); err != nil {
		e.err = err
		return err
	}
	return e.f.Write(e.w)
}

func (e *ExcelEncoder) Close() error {
	if e.f != nil {
		_ = e.f.Close()
	}
	return nil
}
