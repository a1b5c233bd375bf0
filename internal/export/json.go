package export

import (
	"encoding/json"
	"io"
)

// JSONExporter writes pretty-printed JSON.
type JSONExporter struct{}

// Export writes v as indented JSON.
func (e *JSONExporter) Export(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
