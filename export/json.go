package export

import (
	"encoding/json"
	"io"
)

// JSONEncoder streams rows as JSON Lines, one object per row keyed by
// column name. NULL cells stay JSON null.
type JSONEncoder struct {
	w       io.Writer
	columns []string
}

// NewJSONEncoder creates a JSON Lines encoder writing to w.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.columns = columns
	return nil
}

func (e *JSONEncoder) WriteRow(values []interface{}) error {
	obj := make(map[string]interface{}, len(values))
	for i, v := range values {
		if i >= len(e.columns) {
			break
		}
		if v == nil {
			obj[e.columns[i]] = nil
			continue
		}
		obj[e.columns[i]] = formatValue(v)
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	_, err = e.w.Write([]byte("\n"))
	return err
}

func (e *JSONEncoder) Flush() error {
	return nil
}

func (e *JSONEncoder) Close() error {
	return nil
}
