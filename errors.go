package smrproxy

import "errors"

// ErrInvalidConfig is returned by NewProxy when a Config field fails
// validation: zero or over-budget QueueSize, or a Cachesize that is
// neither zero (auto-detect) nor a power of two.
var ErrInvalidConfig = errors.New("smrproxy: invalid configuration")

// ErrDeadlock is returned by RetireSync when the calling goroutine's
// own Ref is still acquired on the same proxy. Blocking retirement
// waits for reclamation to observe every acquired reference quiescent;
// a self-held reference can never become quiescent on its own, so the
// call would block forever.
var ErrDeadlock = errors.New("smrproxy: retire would deadlock: caller holds an acquired reference on this proxy")

// ErrClosed is returned by RetireSync and RetireSyncWithExpiry when
// Close runs while they are waiting for queue space or for
// reclamation. No other operation checks whether the Proxy is closed.
var ErrClosed = errors.New("smrproxy: proxy is closed")
