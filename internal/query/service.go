// Package query provides SQL access to a cache directory. It uses DuckDB's
// read_parquet to scan the model and agent cache files without loading a
// whole run into memory.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/nharlow/recap/internal/parquet"
	"github.com/nharlow/recap/internal/table"
)

// Service runs queries over one cache directory.
type Service struct {
	mu  sync.RWMutex
	db  *sql.DB
	dir string

	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// Open creates a query service over dir, backed by an in-memory DuckDB.
func Open(dir string) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Service{db: db, dir: dir}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// modelGlob matches every model cache file in the directory.
func (s *Service) modelGlob() string {
	return filepath.Join(s.dir, table.ModelTableName+"_*."+parquet.Ext)
}

// agentGlob matches every agent cache file in the directory.
func (s *Service) agentGlob() string {
	return filepath.Join(s.dir, table.AgentTableName+"_*."+parquet.Ext)
}

// ModelRange returns the model rows with step in [startStep, endStep],
// ordered by step. limit <= 0 means no limit.
func (s *Service) ModelRange(ctx context.Context, startStep, endStep int64, limit int) ([]map[string]any, error) {
	query := `
		SELECT *
		FROM read_parquet($1)
		WHERE step >= $2 AND step <= $3
		ORDER BY step
	`
	return s.run(ctx, query, s.modelGlob(), startStep, endStep, limit)
}

// AgentStep returns the agent rows recorded at one step, ordered by agent_id.
func (s *Service) AgentStep(ctx context.Context, step int64) ([]map[string]any, error) {
	query := `
		SELECT *
		FROM read_parquet($1)
		WHERE step = $2
		ORDER BY agent_id
	`
	return s.run(ctx, query, s.agentGlob(), step, nil, 0)
}

// AgentRange returns the agent rows with step in [startStep, endStep],
// ordered by (step, agent_id). limit <= 0 means no limit.
func (s *Service) AgentRange(ctx context.Context, startStep, endStep int64, limit int) ([]map[string]any, error) {
	query := `
		SELECT *
		FROM read_parquet($1)
		WHERE step >= $2 AND step <= $3
		ORDER BY step, agent_id
	`
	return s.run(ctx, query, s.agentGlob(), startStep, endStep, limit)
}

func (s *Service) run(ctx context.Context, query string, glob string, a, b any, limit int) ([]map[string]any, error) {
	args := []any{glob, a}
	if b != nil {
		args = append(args, b)
	}

	results, err := s.ExecuteSQLArgs(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ExecuteSQL executes a raw SQL query. The placeholders $model and $agent
// expand to the directory's cache file globs, so ad-hoc queries can say
// e.g. SELECT count(*) FROM read_parquet('$model').
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]any, error) {
	return s.ExecuteSQLArgs(ctx, expandGlobs(query, s.modelGlob(), s.agentGlob()))
}

// expandGlobs substitutes the $model and $agent placeholders.
func expandGlobs(query, modelGlob, agentGlob string) string {
	out := ""
	for i := 0; i < len(query); {
		switch {
		case hasPrefixAt(query, i, "$model"):
			out += modelGlob
			i += len("$model")
		case hasPrefixAt(query, i, "$agent"):
			out += agentGlob
			i += len("$agent")
		default:
			out += string(query[i])
			i++
		}
	}
	return out
}

func hasPrefixAt(s string, i int, prefix string) bool {
	return i+len(prefix) <= len(s) && s[i:i+len(prefix)] == prefix
}

// ExecuteSQLArgs executes a parameterized SQL query and scans every row
// into a column-name map.
func (s *Service) ExecuteSQLArgs(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.stats.Errors++
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}

	s.stats.QueriesExecuted++
	s.stats.RowsReturned += int64(len(results))
	return results, rows.Err()
}

// ServiceStats returns query statistics.
func (s *Service) ServiceStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
