package parquet

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/nharlow/recap/internal/table"
)

// WriteTable serializes t to path. The write is all-or-nothing: rows are
// written to a temporary file in the same directory which is renamed onto
// path only after a clean close, so a failed write never leaves a file
// claiming the target path (the next run would observe a false collision).
//
// Existence checks on path belong to the caller; WriteTable itself does not
// guard against overwrite.
func WriteTable(t *table.Table, path string, opts Options) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	w := parquet.NewGenericWriter[map[string]any](f, schemaOf(t),
		parquet.Compression(getCompression(opts.Compression)))

	rows := make([]map[string]any, len(t.Rows))
	for i, r := range t.Rows {
		m := make(map[string]any, len(t.Index)+len(t.Columns))
		for j, col := range t.Index {
			m[col] = r.Index[j]
		}
		for j, col := range t.Columns {
			m[col] = r.Values[j]
		}
		rows[i] = m
	}

	if _, err := w.Write(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("close writer: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
