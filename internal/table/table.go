// Package table converts buffered per-step records into rectangular tables
// suitable for columnar storage.
package table

import (
	"math"

	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/types"
)

// Index column names shared by the whole engine.
const (
	StepColumn    = "step"
	AgentIDColumn = "agent_id"
)

// Table names used for cache files.
const (
	ModelTableName = "model_data"
	AgentTableName = "agent_data"
)

// Table is a rectangular table: one or two int64 index columns followed by
// one float64 column per reporter. Reporter columns are sorted by name so
// the schema is stable across buckets.
type Table struct {
	Name    string
	Index   []string
	Columns []string
	Rows    []Row
}

// Row is one table row. Values is aligned with Table.Columns; reporters a
// record did not carry are filled with NaN to keep the table rectangular.
type Row struct {
	Index  []int64
	Values []float64
}

// Empty returns true if the table holds no rows. Empty tables are never
// persisted; the gateway skips them.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// ColumnNames returns index columns followed by reporter columns.
func (t *Table) ColumnNames() []string {
	out := make([]string, 0, len(t.Index)+len(t.Columns))
	out = append(out, t.Index...)
	out = append(out, t.Columns...)
	return out
}

// AssembleModel builds the model-level table for one flush window. The index
// is the step, the columns are the configured model reporter names. An empty
// reporter set is an error rather than an empty table: an empty result would
// be ambiguous between misconfiguration and a window with no eligible steps.
func AssembleModel(records []types.ModelRecord, reporters []string) (*Table, error) {
	if len(reporters) == 0 {
		return nil, errors.ErrNoModelReporters
	}

	t := &Table{
		Name:    ModelTableName,
		Index:   []string{StepColumn},
		Columns: reporters,
	}

	for _, rec := range records {
		t.Rows = append(t.Rows, Row{
			Index:  []int64{rec.Step},
			Values: valuesFor(reporters, rec.Values),
		})
	}
	return t, nil
}

// AssembleAgents builds the agent-level table for one flush window. The index
// is the (step, agent_id) pair, the columns are the configured agent
// reporter names.
func AssembleAgents(records []types.AgentRecord, reporters []string) (*Table, error) {
	if len(reporters) == 0 {
		return nil, errors.ErrNoAgentReporters
	}

	t := &Table{
		Name:    AgentTableName,
		Index:   []string{StepColumn, AgentIDColumn},
		Columns: reporters,
	}

	for _, rec := range records {
		t.Rows = append(t.Rows, Row{
			Index:  []int64{rec.Step, rec.AgentID},
			Values: valuesFor(reporters, rec.Values),
		})
	}
	return t, nil
}

func valuesFor(reporters []string, values map[string]float64) []float64 {
	out := make([]float64, len(reporters))
	for i, name := range reporters {
		v, ok := values[name]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
