// Package xepoch implements the wrapping 32-bit epoch arithmetic shared by
// every layer of the proxy: the retire queue, the reference registry, and
// the reclaimer all route their ordering decisions through Cmp.
//
// An Epoch is a logical timestamp for a retirement. It wraps modulo 2^32
// and is compared by signed subtraction rather than by raw unsigned "<",
// which is why this package exists as a strong type instead of a plain
// uint32: nothing outside this file is allowed to compare epochs any other
// way.
package xepoch

// Epoch is a wrapping 32-bit logical timestamp. The zero value means "no
// observation" when stored in a reference; real epochs are odd and
// nonzero, advancing by two per retire.
type Epoch uint32

// Initial is the epoch value a freshly created proxy starts at.
const Initial Epoch = 1

// MaxQueueSize bounds the retire queue size accepted by retireq.Create.
// The slot-index computation (e>>1 mod size) requires queue_size to stay
// well inside the epoch's wrap period; the original C source never
// checked this (see spec.md "Open questions"), so we reject oversized
// queues here instead of leaving the arithmetic to quietly misbehave.
const MaxQueueSize = 1 << 30

// Cmp returns the signed difference int32(a-b): negative if a precedes b,
// zero if equal, positive if a follows b. This is wrap-aware: it remains
// correct as long as no more than 2^31 retirements separate a and b.
//
// All ordering decisions on epochs MUST go through Cmp. Comparing Epoch
// values with the built-in < or > operators silently reintroduces the
// unsigned-wraparound bug this type exists to prevent.
func Cmp(a, b Epoch) int32 {
	return int32(a - b)
}

// Advance returns the next epoch a retire would publish: the current
// epoch plus two. The low bit is never touched, so epochs stay odd.
func Advance(e Epoch) Epoch {
	return e + 2
}

// Slot maps an epoch to its ring-buffer index for a queue of the given
// size: (e >> 1) mod size. This is the ring position at which retireq
// stores the entry enqueued while its tail was e; retireq tracks that
// position incrementally with its own head/tail indices rather than
// calling Slot.
func Slot(e Epoch, size uint32) uint32 {
	return uint32(e>>1) % size
}

// IsOdd reports whether e is a valid (nonzero, odd) epoch value, as
// opposed to 0 (the "no observation" sentinel).
func IsOdd(e Epoch) bool {
	return e&1 == 1
}
