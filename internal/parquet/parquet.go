// Package parquet serializes assembled tables to Parquet files and reads
// them back. Schemas are built per table: int64 index columns (step, and
// agent_id for agent tables) followed by one float64 column per reporter.
package parquet

import (
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/nharlow/recap/internal/table"
)

// Ext is the file extension for cache files, without the dot.
const Ext = "parquet"

// Options configures Parquet serialization.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22)
	CompressionLevel int
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// schemaOf builds the Parquet schema for a table: INT64 index columns,
// DOUBLE reporter columns.
func schemaOf(t *table.Table) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range t.Index {
		group[col] = parquet.Int(64)
	}
	for _, col := range t.Columns {
		group[col] = parquet.Leaf(parquet.DoubleType)
	}
	return parquet.NewSchema(t.Name, group)
}
