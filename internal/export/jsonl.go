package export

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// JSONLExporter writes one JSON value per line: each element of a list, or the
// value itself when it is not a list.
type JSONLExporter struct{}

// Export writes v as JSON lines.
func (e *JSONLExporter) Export(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)

	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return enc.Encode(v)
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return enc.Encode(v)
	}

	for i := 0; i < rv.Len(); i++ {
		if err := enc.Encode(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("failed to encode item %d: %w", i, err)
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
