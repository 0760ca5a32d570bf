// Package export persists pipeline output: the ordered JSON record
// array, the failed-URL retry list, and the classified error log.
// All writers are append-safe across resumed runs.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RecordWriter maintains a JSON array of records on disk. It loads any
// existing array on creation so a resumed run extends rather than
// clobbers previous output, and rewrites the full array on each flush
// to keep the document well-formed at all times.
type RecordWriter[T any] struct {
	path    string
	records []T
}

// NewRecordWriter opens (or primes) the record array at path.
func NewRecordWriter[T any](path string) (*RecordWriter[T], error) {
	w := &RecordWriter[T]{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return w, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read existing output: %w", err)
	}
	if len(data) == 0 {
		return w, nil
	}
	if err := json.Unmarshal(data, &w.records); err != nil {
		return nil, fmt.Errorf("existing output %s is not a JSON array: %w", path, err)
	}

	slog.Info("Resuming output file", "path", path, "existing_records", len(w.records))
	return w, nil
}

// Count returns the number of records currently persisted, which is the
// serial-number base for a resumed run.
func (w *RecordWriter[T]) Count() int {
	return len(w.records)
}

// Append extends the array with a batch and rewrites the file.
func (w *RecordWriter[T]) Append(batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	w.records = append(w.records, batch...)
	return w.flush()
}

func (w *RecordWriter[T]) flush() error {
	data, err := json.MarshalIndent(w.records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
