//go:build smrproxy_mb

package smrproxy

// Acquire records the proxy's current epoch on this reference. Built
// with no process-wide membarrier available (internal/smr/membarrier
// fell back to its no-op Syncer), Acquire instead double-checks its
// own store: it repeatedly stores the epoch it just read and re-reads
// the proxy epoch until two consecutive reads agree, which rules out
// the window where the reclaimer observed a stale epoch value between
// this goroutine's load and its store.
func (r *Ref) Acquire() {
	local := r.proxyEpoch.Load()
	for {
		r.epoch.Store(local)
		observed := r.proxyEpoch.Load()
		if observed == local {
			return
		}
		local = observed
	}
}
