package cache

// ShouldFlush reports whether the accumulated window must be flushed upon
// reaching step. Pure and side-effect-free: the caller invokes the flush
// action exactly once when this returns true, in step order.
//
// A flush at step 0 would write an empty table and is suppressed.
func ShouldFlush(step, flushInterval int64) bool {
	return step > 0 && step%flushInterval == 0
}
