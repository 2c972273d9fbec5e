package export

import (
	"bufio"
	"encoding/csv"
	"io"
)

// CSVEncoder streams rows as RFC 4180 CSV through a buffered writer.
type CSVEncoder struct {
	w   *csv.Writer
	buf *bufio.Writer
}

// NewCSVEncoder creates a CSV encoder writing to w.
func NewCSVEncoder(w io.Writer) *CSVEncoder {
	buf := bufio.NewWriterSize(w, 64*1024)
	return &CSVEncoder{
		w:   csv.NewWriter(buf),
		buf: buf,
	}
}

func (e *CSVEncoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *CSVEncoder) WriteRow(values []interface{}) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = sanitizeCell(formatValue(v))
	}
	return e.w.Write(record)
}

func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.buf.Flush()
}

func (e *CSVEncoder) Close() error {
	return e.Flush()
}
