// Package collect evaluates the configured reporter sets against a model,
// producing one ModelRecord and zero or more AgentRecords per sampled step.
package collect

import (
	"sort"

	"github.com/nharlow/recap/internal/sim"
	"github.com/nharlow/recap/internal/types"
)

// ModelReporter observes one scalar model-level value.
type ModelReporter func(sim.Model) float64

// AgentReporter observes one scalar value on a single agent.
type AgentReporter func(sim.Agent) float64

// Collector holds the configured reporter sets. Either set may be empty;
// table assembly decides whether that is an error.
type Collector struct {
	modelReporters map[string]ModelReporter
	agentReporters map[string]AgentReporter

	// Sorted name caches, so column order is stable across the run.
	modelNames []string
	agentNames []string
}

// New creates a Collector from the given reporter sets. The maps are not
// copied; callers must not mutate them after construction.
func New(model map[string]ModelReporter, agent map[string]AgentReporter) *Collector {
	c := &Collector{
		modelReporters: model,
		agentReporters: agent,
	}
	for name := range model {
		c.modelNames = append(c.modelNames, name)
	}
	for name := range agent {
		c.agentNames = append(c.agentNames, name)
	}
	sort.Strings(c.modelNames)
	sort.Strings(c.agentNames)
	return c
}

// ModelReporterNames returns the model reporter names in sorted order.
func (c *Collector) ModelReporterNames() []string {
	return c.modelNames
}

// AgentReporterNames returns the agent reporter names in sorted order.
func (c *Collector) AgentReporterNames() []string {
	return c.agentNames
}

// CollectModel evaluates every model reporter against m, labeled with step.
func (c *Collector) CollectModel(step int64, m sim.Model) types.ModelRecord {
	values := make(map[string]float64, len(c.modelReporters))
	for name, fn := range c.modelReporters {
		values[name] = fn(m)
	}
	return types.ModelRecord{Step: step, Values: values}
}

// CollectAgents evaluates every agent reporter against each live agent of m,
// labeled with step. Records follow the model's agent enumeration order.
func (c *Collector) CollectAgents(step int64, m sim.Model) []types.AgentRecord {
	agents := m.Agents()
	records := make([]types.AgentRecord, 0, len(agents))
	for _, a := range agents {
		values := make(map[string]float64, len(c.agentReporters))
		for name, fn := range c.agentReporters {
			values[name] = fn(a)
		}
		records = append(records, types.AgentRecord{
			Step:    step,
			AgentID: a.UniqueID(),
			Values:  values,
		})
	}
	return records
}
