package parquet

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/nharlow/recap/internal/table"
)

func modelTable() *table.Table {
	return &table.Table{
		Name:    table.ModelTableName,
		Index:   []string{table.StepColumn},
		Columns: []string{"mean_x", "mean_y"},
		Rows: []table.Row{
			{Index: []int64{0}, Values: []float64{0.0, 0.0}},
			{Index: []int64{2}, Values: []float64{1.5, -0.5}},
			{Index: []int64{4}, Values: []float64{2.25, math.NaN()}},
		},
	}
}

func agentTable() *table.Table {
	return &table.Table{
		Name:    table.AgentTableName,
		Index:   []string{table.StepColumn, table.AgentIDColumn},
		Columns: []string{"x"},
		Rows: []table.Row{
			{Index: []int64{0, 1}, Values: []float64{0.5}},
			{Index: []int64{0, 2}, Values: []float64{1.5}},
			{Index: []int64{2, 1}, Values: []float64{2.5}},
		},
	}
}

func TestWriteReadModelTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_data_000.parquet")

	if err := WriteTable(modelTable(), path, DefaultOptions()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if got.Name != table.ModelTableName {
		t.Errorf("expected table name %s, got %s", table.ModelTableName, got.Name)
	}
	if len(got.Index) != 1 || got.Index[0] != table.StepColumn {
		t.Errorf("unexpected index: %v", got.Index)
	}
	if len(got.Columns) != 2 || got.Columns[0] != "mean_x" || got.Columns[1] != "mean_y" {
		t.Errorf("unexpected columns: %v", got.Columns)
	}
	if got.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.NumRows())
	}
	if got.Rows[1].Index[0] != 2 || got.Rows[1].Values[0] != 1.5 || got.Rows[1].Values[1] != -0.5 {
		t.Errorf("unexpected row: %+v", got.Rows[1])
	}
	if !math.IsNaN(got.Rows[2].Values[1]) {
		t.Errorf("expected NaN to survive the round trip, got %v", got.Rows[2].Values[1])
	}
}

func TestWriteReadAgentTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_data_000.parquet")

	if err := WriteTable(agentTable(), path, DefaultOptions()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if len(got.Index) != 2 || got.Index[1] != table.AgentIDColumn {
		t.Errorf("unexpected index: %v", got.Index)
	}
	if got.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", got.NumRows())
	}
	if got.Rows[2].Index[0] != 2 || got.Rows[2].Index[1] != 1 {
		t.Errorf("unexpected index in last row: %v", got.Rows[2].Index)
	}
}

func TestReadZeroRowTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_data_000.parquet")

	empty := &table.Table{
		Name:    table.ModelTableName,
		Index:   []string{table.StepColumn},
		Columns: []string{"mean_x"},
	}
	if err := WriteTable(empty, path, DefaultOptions()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	got, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if got.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", got.NumRows())
	}
	if len(got.Columns) != 1 || got.Columns[0] != "mean_x" {
		t.Errorf("unexpected columns: %v", got.Columns)
	}
}

func TestWriteLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model_data_000.parquet")

	if err := WriteTable(modelTable(), path, DefaultOptions()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after successful write")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionSnappy, CompressionZstd, CompressionGzip} {
		path := filepath.Join(t.TempDir(), "model_data_000.parquet")
		opts := Options{Compression: ct, CompressionLevel: 3}

		if err := WriteTable(modelTable(), path, opts); err != nil {
			t.Fatalf("WriteTable (%d): %v", ct, err)
		}
		got, err := ReadTable(path)
		if err != nil {
			t.Fatalf("ReadTable (%d): %v", ct, err)
		}
		if got.NumRows() != 3 {
			t.Errorf("compression %d: expected 3 rows, got %d", ct, got.NumRows())
		}
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		input string
		want  CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"", CompressionNone},
		{"bogus", CompressionZstd},
	}
	for _, tt := range tests {
		if got := ParseCompressionType(tt.input); got != tt.want {
			t.Errorf("ParseCompressionType(%q): expected %d, got %d", tt.input, tt.want, got)
		}
	}
}

func TestInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_data_000.parquet")
	if err := WriteTable(agentTable(), path, DefaultOptions()); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	info, err := Info(path)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.NumRows != 3 {
		t.Errorf("expected 3 rows, got %d", info.NumRows)
	}
	if info.Size <= 0 {
		t.Errorf("expected positive size, got %d", info.Size)
	}
	if len(info.Columns) != 3 {
		t.Errorf("expected 3 columns, got %v", info.Columns)
	}
}
