// Package membarrier provides the one-shot, process-wide memory barrier
// the reclaimer uses in place of a fence on every reader's fast path.
//
// Sync establishes that, after it returns, every goroutine that previously
// executed an unordered store to a reference's epoch field has that store
// visible to the calling goroutine's subsequent loads. On platforms that
// expose an expedited process-wide barrier syscall this is a single cheap
// call; elsewhere it is a no-op, and callers are expected to build with the
// smrproxy_mb tag so the reader fast path compensates (see
// smrproxy.Ref.Acquire in ref_acquire_mb.go).
package membarrier

// Syncer is the platform collaborator the proxy's reclaimer consumes. The
// core never does anything with a Syncer except call Sync from the
// reclaim cycle and Close at proxy teardown.
type Syncer interface {
	// Sync issues the barrier. Expedited implementations block briefly
	// while every other thread of the process observes it; the no-op
	// implementation returns immediately and guarantees nothing.
	Sync()

	// Close releases any resources (e.g. syscall registration) acquired
	// by New.
	Close() error
}

// Expedited reports whether this platform's build of New attempts a real
// cross-thread barrier, as opposed to always returning the no-op
// fallback. A true result does not guarantee one: New still returns the
// no-op fallback if the kernel rejects registration. It is informational
// only: the proxy does not change algorithm based on it at runtime — the
// smrproxy_mb build tag is the actual compensating mechanism, selected at
// compile time, exactly as the original C SMRPROXY_MB macro is.
func Expedited() bool {
	return expedited
}

// noopSyncer is the fallback Syncer for platforms (or registration
// failures) with no process-wide barrier syscall. Per spec, code relying
// on correctness in this mode must be built with the smrproxy_mb tag,
// which upgrades Ref.Acquire to the seq-cst double-check loop.
type noopSyncer struct{}

func (noopSyncer) Sync()        {}
func (noopSyncer) Close() error { return nil }
