// Package sim defines the collaborator interfaces the cache engine expects
// from a stepwise simulation. The engine never looks inside a model: it only
// advances it one tick at a time and enumerates the live agents so that
// reporters can observe them.
package sim

// Model is a stepwise simulation. Step advances the simulation by exactly
// one tick; the cache session is responsible for counting ticks.
type Model interface {
	// Step performs one simulation tick: agent scheduling, model logic,
	// whatever the simulation defines. It must complete fully before the
	// session continues.
	Step()

	// Agents enumerates the agents alive at the current tick, in a
	// stable order.
	Agents() []Agent
}

// Agent is one observable unit within a model.
type Agent interface {
	// UniqueID identifies the agent within a step. IDs are not required
	// to be unique across the whole run.
	UniqueID() int64
}
