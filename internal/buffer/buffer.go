// Package buffer implements the in-memory accumulator of per-step
// observations awaiting flush.
package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/nharlow/recap/internal/types"
)

// Buffer accumulates model and agent records for the current, not-yet-flushed
// interval. Records are append-only: once inserted they are never mutated,
// and a drain hands each record out exactly once.
//
// The buffer is exclusively owned by one session; the mutex exists so that
// observers (stats, CLI status) can read lengths while a step is in flight.
type Buffer struct {
	mu     sync.Mutex
	model  []types.ModelRecord
	agents []types.AgentRecord

	// Statistics
	modelAppended atomic.Int64
	agentAppended atomic.Int64
	drains        atomic.Int64
}

// New creates an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// AppendModel adds one model-level record.
func (b *Buffer) AppendModel(rec types.ModelRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.model = append(b.model, rec)
	b.modelAppended.Add(1)
}

// AppendAgent adds one agent-level record.
func (b *Buffer) AppendAgent(rec types.AgentRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.agents = append(b.agents, rec)
	b.agentAppended.Add(1)
}

// DrainModel returns all model records appended since the last drain, in
// insertion order, and atomically clears the backing store.
func (b *Buffer) DrainModel() []types.ModelRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.model
	b.model = nil
	b.drains.Add(1)
	return out
}

// DrainAgents returns all agent records appended since the last drain, in
// insertion order, and atomically clears the backing store.
func (b *Buffer) DrainAgents() []types.AgentRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.agents
	b.agents = nil
	b.drains.Add(1)
	return out
}

// ModelLen returns the number of buffered model records.
func (b *Buffer) ModelLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.model)
}

// AgentLen returns the number of buffered agent records.
func (b *Buffer) AgentLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.agents)
}

// IsEmpty returns true if no records of either kind are buffered.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.model) == 0 && len(b.agents) == 0
}

// Stats returns buffer statistics.
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Stats{
		ModelBuffered: len(b.model),
		AgentBuffered: len(b.agents),
		ModelAppended: b.modelAppended.Load(),
		AgentAppended: b.agentAppended.Load(),
		Drains:        b.drains.Load(),
	}
}

// Stats holds buffer statistics.
type Stats struct {
	ModelBuffered int
	AgentBuffered int
	ModelAppended int64
	AgentAppended int64
	Drains        int64
}
