// Package types defines the core data types shared across the cache engine.
//
// Key types:
//   - Mode: RECORD or REPLAY, fixed for the lifetime of a session
//   - ModelRecord: one sampled step's model-level observations
//   - AgentRecord: one agent's observations at one sampled step
package types
