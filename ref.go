package smrproxy

import (
	"sync/atomic"

	"github.com/kolkov/smrproxy/internal/smr/xepoch"
)

// Ref is a per-reader (or per-goroutine) handle into a Proxy's
// reclamation epoch. Callers obtain one with Proxy.NewRef, Acquire it
// before a read-side traversal, and Release it afterward; the cost is
// one atomic load and one atomic store (smrproxy_mb builds repeat the
// pair until two loads agree) — no atomic read-modify-write, no lock.
//
// A Ref is not safe for concurrent use by more than one goroutine at a
// time: it models a single logical reader.
type Ref struct {
	// epoch is 0 when the reference is released (quiescent), or the
	// proxy epoch observed at the last Acquire/Next otherwise. Written
	// only by the owning goroutine; read by the reclaimer under the
	// proxy mutex.
	epoch atomic.Uint32

	// proxyEpoch points at the owning Proxy's current-epoch cell, read
	// on every Acquire/Next without taking the proxy mutex.
	proxyEpoch *atomic.Uint32

	// currentEpoch and effectiveEpoch are reclaimer-owned scratch
	// space: touched only inside Proxy.reclaimLocked, under the proxy
	// mutex, never by the reader that owns this Ref. They persist
	// across reclaim cycles so a reference's effective epoch can only
	// move forward even if the reader never calls Acquire again.
	currentEpoch   xepoch.Epoch
	effectiveEpoch xepoch.Epoch

	// Data is an opaque word the caller may use to stash a traversal
	// cursor (e.g. the last node epoch, for Next's expiry comparisons)
	// across calls. The proxy never interprets it.
	Data uintptr

	proxy *Proxy
	next  *Ref // intrusive singly linked list, proxy.mu protected

	// Padding keeps adjacent Refs from sharing a cache line: the
	// reclaimer writes currentEpoch/effectiveEpoch on every cycle
	// while the owning reader concurrently spins Acquire/Release on
	// epoch, so two Refs back to back would otherwise false-share.
	_ [64]byte
}

// Release marks the reference quiescent: the reclaimer is now free to
// treat this Ref as not observing any epoch, and reclaim anything
// retired up to the proxy's current epoch once every other reference
// agrees.
func (r *Ref) Release() {
	r.epoch.Store(0)
}

// Close detaches the reference from its proxy permanently. A released
// Ref may be re-Acquired; a closed one may not.
func (r *Ref) Close() {
	p := r.proxy
	if p == nil {
		return
	}
	p.mu.Lock()
	p.removeRefLocked(r)
	p.mu.Unlock()
}

// Next advances the reference across a traversal step to a node whose
// retirement epoch is reported by getExpiry(node), keeping whichever
// of the reference's current epoch and the node's expiry is newer. A
// released reference (epoch 0) simply Acquires instead: the first Next
// of a traversal behaves like Acquire.
//
// getExpiry should return 0 for a node that has not been retired
// (still live, no upper bound on how long a reader may depend on it).
func (r *Ref) Next(getExpiry func(node any) xepoch.Epoch, node any) {
	if r.epoch.Load() == 0 {
		r.Acquire()
		return
	}
	expiry := getExpiry(node)
	if expiry == 0 {
		r.epoch.Store(r.proxyEpoch.Load())
		return
	}
	if xepoch.Cmp(expiry, xepoch.Epoch(r.epoch.Load())) > 0 {
		r.epoch.Store(uint32(expiry))
	}
}
