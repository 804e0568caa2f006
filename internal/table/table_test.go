package table

import (
	"math"
	"testing"

	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/types"
)

func TestAssembleModel(t *testing.T) {
	records := []types.ModelRecord{
		{Step: 0, Values: map[string]float64{"a": 1, "b": 2}},
		{Step: 2, Values: map[string]float64{"a": 3, "b": 4}},
	}

	tbl, err := AssembleModel(records, []string{"a", "b"})
	if err != nil {
		t.Fatalf("AssembleModel: %v", err)
	}

	if tbl.Name != ModelTableName {
		t.Errorf("expected table name %s, got %s", ModelTableName, tbl.Name)
	}
	if len(tbl.Index) != 1 || tbl.Index[0] != StepColumn {
		t.Errorf("unexpected index columns: %v", tbl.Index)
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", tbl.NumRows())
	}
	if tbl.Rows[1].Index[0] != 2 {
		t.Errorf("expected step 2 in second row, got %d", tbl.Rows[1].Index[0])
	}
	if tbl.Rows[1].Values[0] != 3 || tbl.Rows[1].Values[1] != 4 {
		t.Errorf("unexpected row values: %v", tbl.Rows[1].Values)
	}
}

func TestAssembleModelNoReporters(t *testing.T) {
	records := []types.ModelRecord{{Step: 0, Values: map[string]float64{"a": 1}}}

	_, err := AssembleModel(records, nil)
	if err != errors.ErrNoModelReporters {
		t.Errorf("expected ErrNoModelReporters, got %v", err)
	}

	// The error fires even when there is nothing to write: it signals
	// misconfiguration, not an empty window.
	_, err = AssembleModel(nil, nil)
	if err != errors.ErrNoModelReporters {
		t.Errorf("expected ErrNoModelReporters for empty window, got %v", err)
	}
}

func TestAssembleModelEmptyWindow(t *testing.T) {
	tbl, err := AssembleModel(nil, []string{"a"})
	if err != nil {
		t.Fatalf("AssembleModel: %v", err)
	}
	if !tbl.Empty() {
		t.Errorf("expected empty table, got %d rows", tbl.NumRows())
	}
}

func TestAssembleModelMissingValueFilledWithNaN(t *testing.T) {
	records := []types.ModelRecord{
		{Step: 0, Values: map[string]float64{"a": 1}},
	}

	tbl, err := AssembleModel(records, []string{"a", "b"})
	if err != nil {
		t.Fatalf("AssembleModel: %v", err)
	}
	if tbl.Rows[0].Values[0] != 1 {
		t.Errorf("expected a=1, got %v", tbl.Rows[0].Values[0])
	}
	if !math.IsNaN(tbl.Rows[0].Values[1]) {
		t.Errorf("expected NaN for missing reporter, got %v", tbl.Rows[0].Values[1])
	}
}

func TestAssembleAgents(t *testing.T) {
	records := []types.AgentRecord{
		{Step: 0, AgentID: 1, Values: map[string]float64{"x": 0.5}},
		{Step: 0, AgentID: 2, Values: map[string]float64{"x": 1.5}},
		{Step: 2, AgentID: 1, Values: map[string]float64{"x": 2.5}},
	}

	tbl, err := AssembleAgents(records, []string{"x"})
	if err != nil {
		t.Fatalf("AssembleAgents: %v", err)
	}

	if tbl.Name != AgentTableName {
		t.Errorf("expected table name %s, got %s", AgentTableName, tbl.Name)
	}
	if len(tbl.Index) != 2 || tbl.Index[0] != StepColumn || tbl.Index[1] != AgentIDColumn {
		t.Errorf("unexpected index columns: %v", tbl.Index)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.NumRows())
	}
	if tbl.Rows[2].Index[0] != 2 || tbl.Rows[2].Index[1] != 1 {
		t.Errorf("unexpected index in third row: %v", tbl.Rows[2].Index)
	}
}

func TestAssembleAgentsNoReporters(t *testing.T) {
	_, err := AssembleAgents(nil, []string{})
	if err != errors.ErrNoAgentReporters {
		t.Errorf("expected ErrNoAgentReporters, got %v", err)
	}
}

func TestColumnNames(t *testing.T) {
	tbl := &Table{
		Index:   []string{StepColumn, AgentIDColumn},
		Columns: []string{"dist", "x"},
	}
	got := tbl.ColumnNames()
	want := []string{"step", "agent_id", "dist", "x"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
