package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceIterator struct {
	cols []string
	rows [][]interface{}
	idx  int
	err  error
}

func (it *sliceIterator) Columns() []string { return it.cols }

func (it *sliceIterator) Next() bool {
	if it.idx >= len(it.rows) {
		return false
	}
	it.idx++
	return true
}

func (it *sliceIterator) Row() []interface{} { return it.rows[it.idx-1] }

func (it *sliceIterator) Err() error {
	if it.idx >= len(it.rows) {
		return it.err
	}
	return nil
}

func TestExportCSV(t *testing.T) {
	it := &sliceIterator{
		cols: []string{"id", "name", "balance"},
		rows: [][]interface{}{
			{"1", "alice", "10.50"},
			{"2", nil, "=2+2"},
		},
	}

	var buf bytes.Buffer
	enc := NewCSVEncoder(&buf)
	rows, err := Export(it, enc)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	assert.Equal(t, int64(2), rows)
	assert.Equal(t,
		"id,name,balance\n1,alice,10.50\n2,NULL,'=2+2\n",
		buf.String())
}

func TestExportJSONLines(t *testing.T) {
	it := &sliceIterator{
		cols: []string{"id", "note"},
		rows: [][]interface{}{
			{"1", "hello"},
			{"2", nil},
		},
	}

	var buf bytes.Buffer
	rows, err := Export(it, NewJSONEncoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, map[string]interface{}{"id": "1", "note": "hello"}, first)
	assert.Equal(t, map[string]interface{}{"id": "2", "note": nil}, second)
}

func TestExportPropagatesIteratorError(t *testing.T) {
	cause := errors.New("connection reset")
	it := &sliceIterator{
		cols: []string{"id"},
		rows: [][]interface{}{{"1"}},
		err:  cause,
	}

	var buf bytes.Buffer
	rows, err := Export(it, NewCSVEncoder(&buf))

	assert.Equal(t, int64(1), rows)
	assert.ErrorIs(t, err, cause)
}

func TestExportExcelSmoke(t *testing.T) {
	it := &sliceIterator{
		cols: []string{"id", "name"},
		rows: [][]interface{}{{"1", "alice"}, {"2", "=HYPERLINK()"}},
	}

	var buf bytes.Buffer
	enc := NewExcelEncoder(&buf)
	rows, err := Export(it, enc)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	assert.Equal(t, int64(2), rows)
	// XLSX output is a zip archive.
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])
}

func TestExportPDFSmoke(t *testing.T) {
	it := &sliceIterator{
		cols: []string{"id", "name"},
		rows: [][]interface{}{{"1", "alice"}},
	}

	var buf bytes.Buffer
	enc := NewPDFEncoder(&buf)
	rows, err := Export(it, enc)
	require.NoError(t, err)

	assert.Equal(t, int64(1), rows)
	require.Greater(t, buf.Len(), 5)
	assert.Equal(t, []byte("%PDF-"), buf.Bytes()[:5])
}

func TestNewEncoderDispatch(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &JSONEncoder{}, NewEncoder("json", &buf))
	assert.IsType(t, &ExcelEncoder{}, NewEncoder("xlsx", &buf))
	assert.IsType(t, &ExcelEncoder{}, NewEncoder("excel", &buf))
	assert.IsType(t, &PDFEncoder{}, NewEncoder("pdf", &buf))
	assert.IsType(t, &CSVEncoder{}, NewEncoder("csv", &buf))
	assert.IsType(t, &CSVEncoder{}, NewEncoder("", &buf))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, "NULL"},
		{"string", "x", "x"},
		{"bytes", []byte("raw"), "raw"},
		{"int64", int64(-42), "-42"},
		{"float", 3.25, "3.25"},
		{"bool_true", true, "1"},
		{"bool_false", false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestSanitizeCell(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", sanitizeCell("=SUM(A1)"))
	assert.Equal(t, "'+1", sanitizeCell("+1"))
	assert.Equal(t, "'-1", sanitizeCell("-1"))
	assert.Equal(t, "'@x", sanitizeCell("@x"))
	assert.Equal(t, "plain", sanitizeCell("plain"))
	assert.Equal(t, "", sanitizeCell(""))
}
