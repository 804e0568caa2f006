package types

import (
	"fmt"
	"strconv"
)

// Mode selects whether a session simulates and writes to the cache,
// or reads prior state back instead of simulating.
type Mode int

const (
	// ModeRecord performs the simulation and writes each sampled step's
	// observable state to the cache.
	ModeRecord Mode = iota
	// ModeReplay reads each sampled step's state back from the cache
	// instead of re-running the simulation.
	ModeReplay
)

// String returns a human-readable representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "record":
		return ModeRecord, nil
	case "replay":
		return ModeReplay, nil
	default:
		return ModeRecord, fmt.Errorf("unknown mode %q (want record or replay)", s)
	}
}

// ModelRecord holds the model-level observations captured at one step.
// Values maps reporter name to the observed scalar. Records are never
// mutated after insertion into the buffer.
type ModelRecord struct {
	Step   int64
	Values map[string]float64
}

// AgentRecord holds one agent's observations at one step. AgentID is
// unique within a step but not across the whole run.
type AgentRecord struct {
	Step    int64
	AgentID int64
	Values  map[string]float64
}

// Bucket returns the flush bucket containing step. Bucket b covers
// steps [b*flushInterval, (b+1)*flushInterval).
func Bucket(step, flushInterval int64) int64 {
	return step / flushInterval
}

// PadWidth returns the zero-padding width used in cache file names:
// the digit count of the total planned step count, minus one.
func PadWidth(totalSteps int64) int {
	return len(strconv.FormatInt(totalSteps, 10)) - 1
}

// FormatBucket renders a bucket index zero-padded to width characters.
// Indexes wider than width are rendered in full.
func FormatBucket(bucket int64, width int) string {
	return fmt.Sprintf("%0*d", width, bucket)
}
