//go:build !linux

package membarrier

const expedited = false

// New returns the no-op fallback on platforms without an expedited
// process-wide barrier syscall, matching the original C
// src/platform/other/membarrier.c. Programs targeting these platforms
// should be built with the smrproxy_mb tag.
func New() Syncer {
	return noopSyncer{}
}
