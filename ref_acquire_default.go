//go:build !smrproxy_mb

package smrproxy

// Acquire records the proxy's current epoch on this reference. This
// build assumes a process-wide membarrier is available (the default
// Linux path, internal/smr/membarrier.Expedited() == true): the
// reclaimer issues a real memory barrier whenever the epoch has advanced
// since its last barrier, instead of relying on the reader to
// double-check its own load, so a single atomic load plus an atomic
// store is sufficient here.
func (r *Ref) Acquire() {
	r.epoch.Store(r.proxyEpoch.Load())
}
