package smrproxy

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kolkov/smrproxy/internal/smr/xepoch"
)

func newTestProxy(t *testing.T, cfg Config) *Proxy {
	t.Helper()
	p, err := NewProxy(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p
}

// A held reference blocks reclamation of anything retired after it was
// acquired; releasing it unblocks the next reclaim cycle.
func TestReclaimWaitsForHeldReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = false
	cfg.QueueSize = 4
	p := newTestProxy(t, cfg)

	ref := p.NewRef()
	defer ref.Close()
	ref.Acquire()

	var destroyed atomic.Bool
	if got := p.Retire("node", func(any) { destroyed.Store(true) }); got == 0 {
		t.Fatal("Retire returned 0 on a non-full queue")
	}

	p.Reclaim()
	require.False(t, destroyed.Load(), "destructor ran while a reader still held the retirement epoch")

	ref.Release()
	p.Reclaim()
	require.True(t, destroyed.Load(), "destructor did not run once the only reader released")
}

// A queue sized to hold exactly one retirement rejects a second one
// before any reclaim cycle has run.
func TestRetireRejectsWhenQueueFull(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = false
	cfg.QueueSize = 1
	p := newTestProxy(t, cfg)

	noop := func(any) {}
	first := p.Retire("a", noop)
	require.NotZero(t, first)

	second := p.Retire("b", noop)
	require.Zero(t, second, "Retire should reject once the queue is full")
}

// RetireSync refuses to block on a Ref the caller itself still holds
// acquired, since that reference can never become quiescent on its own.
func TestRetireSyncDetectsSelfDeadlock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = false
	p := newTestProxy(t, cfg)

	ref := p.NewRef()
	defer ref.Close()
	ref.Acquire()

	_, err := p.RetireSync(ref, "x", func(any) {})
	require.ErrorIs(t, err, ErrDeadlock)
}

// With no references registered at all, RetireSync reclaims the object
// it just retired before returning.
func TestRetireSyncReclaimsImmediatelyWithNoReaders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = true
	cfg.QueueSize = 4
	cfg.PollTimeMS = 5
	p := newTestProxy(t, cfg)

	var destroyed atomic.Bool
	_, err := p.RetireSync(nil, "x", func(any) { destroyed.Store(true) })
	require.NoError(t, err)
	require.True(t, destroyed.Load())
}

// Ref.Next behaves like Acquire on a released reference, and otherwise
// only ever moves the observed epoch forward.
func TestRefNextIsMonotonic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = false
	p := newTestProxy(t, cfg)

	ref := p.NewRef()
	defer ref.Close()

	getExpiry := func(node any) xepoch.Epoch { return node.(xepoch.Epoch) }

	ref.Next(getExpiry, xepoch.Epoch(0)) // released -> behaves like Acquire
	require.Equal(t, uint32(xepoch.Initial), ref.epoch.Load())

	newTail := p.Retire("node", func(any) {})
	require.NotZero(t, newTail)

	ref.Next(getExpiry, newTail)
	require.Equal(t, uint32(newTail), ref.epoch.Load())

	// A node expiring before the reference's current epoch never moves
	// it backward.
	ref.Next(getExpiry, xepoch.Initial)
	require.Equal(t, uint32(newTail), ref.epoch.Load())
}

// Close drains whatever remains in the retire queue regardless of
// epoch, since nothing can observe it once the proxy is gone.
func TestCloseDrainsOutstandingRetirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = false
	cfg.QueueSize = 4
	p, err := NewProxy(cfg)
	require.NoError(t, err)

	var destroyed atomic.Bool
	require.NotZero(t, p.Retire("x", func(any) { destroyed.Store(true) }))

	require.NoError(t, p.Close())
	require.True(t, destroyed.Load())
}

// The background goroutine reclaims on its own without any explicit
// Reclaim call, once every reader has released.
func TestBackgroundGoroutineReclaimsEventually(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = true
	cfg.QueueSize = 4
	cfg.PollTimeMS = 5
	p := newTestProxy(t, cfg)

	var destroyed atomic.Bool
	require.NotZero(t, p.Retire("x", func(any) { destroyed.Store(true) }))

	require.Eventually(t, destroyed.Load, time.Second, time.Millisecond)
}

// Regression test: a RetireSync call blocked behind a held reference
// must be woken once the background goroutine's own reclaim cycle
// clears the backlog, not left hanging until some unrelated future
// Retire/Close happens to broadcast.
func TestRetireSyncUnblocksOnBackgroundReclaim(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background = true
	cfg.QueueSize = 4
	cfg.PollTimeMS = 5
	p := newTestProxy(t, cfg)

	ref := p.NewRef()
	defer ref.Close()
	ref.Acquire()

	// Retired while ref is still observing the proxy's current epoch,
	// so it cannot be reclaimed until ref advances or releases.
	require.NotZero(t, p.Retire("blocked-by-ref", func(any) {}))

	done := make(chan struct{})
	var destroyed atomic.Bool
	go func() {
		defer close(done)
		_, err := p.RetireSync(nil, "waits-on-ref", func(any) { destroyed.Store(true) })
		require.NoError(t, err)
	}()

	// Give RetireSync time to enqueue and settle into its blocking wait.
	time.Sleep(20 * time.Millisecond)
	ref.Release()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RetireSync never woke up after the blocking reference released")
	}
	require.True(t, destroyed.Load())
}
