package smrproxy

import (
	"github.com/rs/zerolog"

	"github.com/kolkov/smrproxy/internal/smr/xepoch"
)

// Config configures a Proxy. Use DefaultConfig and override individual
// fields rather than constructing a Config from scratch; a zero
// QueueSize is always rejected, but a zero Cachesize auto-detects.
type Config struct {
	// QueueSize bounds how many retired-but-not-yet-reclaimed objects
	// the proxy can hold at once. Must be nonzero and no larger than
	// xepoch.MaxQueueSize (the queue indexes slots by epoch>>1, which
	// halves the usable range of a 32-bit epoch).
	QueueSize uint32

	// PollTimeMS is the background reclaim goroutine's polling
	// interval, and also the interval at which a blocked RetireSync
	// retries its own reclaim cycle whether or not Background is set.
	// For the background goroutine it is only an upper bound: a Retire
	// call wakes the goroutine immediately via a condition variable
	// broadcast, so in practice it reclaims sooner than this interval
	// under load. Zero is replaced by DefaultConfig's value.
	PollTimeMS uint32

	// Cachesize is the cache line size in bytes. Zero auto-detects via
	// platform.CachelineSize, falling back to
	// platform.DefaultCachelineSize. A nonzero value must be a power
	// of two. NewProxy validates and resolves it, but it does not size
	// any padding: Ref and Proxy use fixed 64-byte padding whatever
	// this value is.
	Cachesize int64

	// Background starts a goroutine that reclaims on its own schedule
	// in addition to whatever RetireSync and Reclaim run. Disable it to
	// reclaim strictly on demand via Proxy.Reclaim, e.g. when a caller
	// wants to drive reclamation from its own event loop instead of an
	// extra goroutine.
	Background bool

	// Logger receives structured diagnostics: queue-full rejections,
	// reclaim-cycle summaries at debug level. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the configuration new callers should start
// from: a 200-slot retire queue, a 50ms poll interval (used only if
// the caller later opts into Background), auto-detected cache padding,
// and the background reclaim goroutine disabled — matching the
// original's own default of synchronous/on-demand reclamation only.
func DefaultConfig() Config {
	return Config{
		QueueSize:  200,
		PollTimeMS: 50,
		Cachesize:  0,
		Background: false,
	}
}

func (c Config) validate() error {
	if c.QueueSize == 0 || c.QueueSize > xepoch.MaxQueueSize {
		return ErrInvalidConfig
	}
	if c.Cachesize != 0 && c.Cachesize&(c.Cachesize-1) != 0 {
		return ErrInvalidConfig
	}
	return nil
}
