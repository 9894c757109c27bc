package report

import (
	"encoding/json"
	"io"
)

// JSONWriter renders reports as JSON.
type JSONWriter struct {
	baseWriter
	version string
	indent  string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents the output by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = "  "
	}
}

// WithVersion adds the tool version to the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter. Output is compact unless WithPrettyPrint is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport is the document JSONWriter emits.
type jsonReport struct {
	Version string         `json:"version,omitempty"`
	Summary jsonSummary    `json:"summary"`
	Report  *GalleryReport `json:"report"`
}

type jsonSummary struct {
	Pages  int            `json:"pages"`
	Loaded int            `json:"loaded"`
	Bytes  int            `json:"bytes"`
	States map[string]int `json:"states"`
}

// Write renders r followed by a newline.
func (w *JSONWriter) Write(r *GalleryReport) (int, error) {
	doc := jsonReport{
		Version: w.version,
		Summary: jsonSummary{
			Pages:  len(r.Entries),
			Loaded: r.LoadedCount(),
			Bytes:  r.TotalBytes(),
			States: r.StateCounts(),
		},
		Report: r,
	}

	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
