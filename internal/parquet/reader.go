package parquet

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/nharlow/recap/internal/table"
)

// ReadTable reads a whole cache file back into a Table. Index columns are
// recognized by name (step, agent_id); everything else becomes a reporter
// column, sorted, matching the order the assembler wrote.
func ReadTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	// The schema comes from the file footer: the generic reader cannot
	// derive one from a map row type.
	r := parquet.NewGenericReader[map[string]any](f, pf.Schema())
	defer r.Close()

	index, columns := splitColumns(r.Schema())

	t := &table.Table{
		Name:    r.Schema().Name(),
		Index:   index,
		Columns: columns,
	}

	numRows := int(r.NumRows())
	if numRows == 0 {
		return t, nil
	}

	// Map rows must be allocated up front; the reader assigns into them.
	rows := make([]map[string]any, numRows)
	for i := range rows {
		rows[i] = make(map[string]any, len(index)+len(columns))
	}
	n, err := r.Read(rows)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	for _, m := range rows[:n] {
		row := table.Row{
			Index:  make([]int64, len(index)),
			Values: make([]float64, len(columns)),
		}
		for j, col := range index {
			row.Index[j] = asInt64(m[col])
		}
		for j, col := range columns {
			row.Values[j] = asFloat64(m[col])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// splitColumns partitions a schema's fields into index and reporter columns.
func splitColumns(schema *parquet.Schema) (index, columns []string) {
	hasAgentID := false
	for _, field := range schema.Fields() {
		switch field.Name() {
		case table.StepColumn:
			// always first in the index
		case table.AgentIDColumn:
			hasAgentID = true
		default:
			columns = append(columns, field.Name())
		}
	}
	sort.Strings(columns)

	index = []string{table.StepColumn}
	if hasAgentID {
		index = append(index, table.AgentIDColumn)
	}
	return index, columns
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int32:
		return int64(x)
	case int:
		return int64(x)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return math.NaN()
	}
}

// FileInfo holds metadata about one cache file.
type FileInfo struct {
	Path    string
	Size    int64
	NumRows int64
	Columns []string
}

// Info returns metadata about a cache file without materializing its rows.
func Info(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	info := &FileInfo{
		Path:    path,
		Size:    stat.Size(),
		NumRows: pf.NumRows(),
	}
	for _, field := range pf.Schema().Fields() {
		info.Columns = append(info.Columns, field.Name())
	}
	return info, nil
}
