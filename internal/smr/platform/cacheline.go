// Package platform supplies the one OS-specific fact the proxy core
// needs and cannot determine portably: the CPU's cache line size, used
// to decide how aggressively to pad per-reader references apart from
// one another.
package platform

// DefaultCachelineSize is used whenever CachelineSize cannot determine
// the real value. The default Config.Cachesize is 0 (auto-detect), which
// NewProxy resolves to CachelineSize or, failing that, to this value.
const DefaultCachelineSize int64 = 64

// CachelineSize returns the L1 data cache line size in bytes, or -1 if
// it could not be determined on this platform. Its caller, NewProxy,
// falls back to DefaultCachelineSize on -1,
// exactly as the original C getcachesize() contract specifies.
func CachelineSize() int64 {
	return cachelineSize()
}
