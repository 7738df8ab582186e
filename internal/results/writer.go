// Package results persists per-run evaluation detail records as JSONL.
package results

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer appends JSON records to a single file, one complete
// newline-terminated line per record. Safe for concurrent use; repeated runs
// sharing a label share one physical file.
type Writer struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewWriter opens (creating if needed) the destination file in append mode.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("results: create dir %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("results: open %q: %w", path, err)
	}
	return &Writer{path: path, f: f}, nil
}

// Path returns the destination file path.
func (w *Writer) Path() string {
	if w == nil {
		return ""
	}
	return w.path
}

// Append marshals the record and writes it as one line. The marshal happens
// before the write so a serialization failure never leaves a partial record.
func (w *Writer) Append(record any) error {
	if w == nil || w.f == nil {
		return fmt.Errorf("results: nil writer")
	}

	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("results: marshal record: %w", err)
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(b); err != nil {
		return fmt.Errorf("results: append %q: %w", w.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
