package smrproxy

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/kolkov/smrproxy/internal/smr/membarrier"
	"github.com/kolkov/smrproxy/internal/smr/platform"
	"github.com/kolkov/smrproxy/internal/smr/retireq"
	"github.com/kolkov/smrproxy/internal/smr/xepoch"
)

// Proxy coordinates readers (via Ref) and writers (via Retire) around
// a single shared epoch. It owns the retire queue, the reference
// registry, and — when Config.Background is set — the goroutine that
// drives reclamation on a timer in addition to whatever Retire wakes
// it for.
type Proxy struct {
	// epoch is read by every Ref.Acquire on the fast path, so it gets
	// its own cache line: reclaimLocked writes mu/queue/refs on every
	// cycle, and none of that should invalidate readers' cached copy
	// of this field beyond the epoch value itself changing.
	epoch atomic.Uint32
	_pad0 [60]byte

	mu   sync.Mutex
	cond *sync.Cond

	cfg    Config
	queue  *retireq.Queue
	membar membarrier.Syncer
	logger zerolog.Logger

	syncEpoch xepoch.Epoch // last epoch a membarrier was issued for
	head      xepoch.Epoch // oldest epoch still reachable through refs, as of the last cycle

	refs *Ref // intrusive list head, mu protected

	active   atomic.Bool
	pollDone chan struct{}
}

// NewProxy creates a Proxy from cfg. A zero QueueSize or an
// out-of-range QueueSize is rejected; a zero Cachesize auto-detects
// via the platform's cache line size.
func NewProxy(cfg Config) (*Proxy, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Cachesize == 0 {
		if sz := platform.CachelineSize(); sz > 0 {
			cfg.Cachesize = sz
		} else {
			cfg.Cachesize = platform.DefaultCachelineSize
		}
	}
	if cfg.PollTimeMS == 0 {
		cfg.PollTimeMS = DefaultConfig().PollTimeMS
	}

	queue, err := retireq.Create(xepoch.Initial, cfg.QueueSize)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	p := &Proxy{
		cfg:       cfg,
		queue:     queue,
		membar:    membarrier.New(),
		logger:    logger,
		syncEpoch: xepoch.Initial,
		head:      xepoch.Initial,
	}
	p.epoch.Store(uint32(xepoch.Initial))
	p.cond = sync.NewCond(&p.mu)
	p.active.Store(true)

	if cfg.Background {
		p.pollDone = make(chan struct{})
		go p.pollLoop()
	}
	return p, nil
}

// Epoch returns the proxy's current epoch. It is a single atomic load,
// safe to call from any goroutine without taking the proxy mutex.
func (p *Proxy) Epoch() xepoch.Epoch {
	return xepoch.Epoch(p.epoch.Load())
}

// NewRef allocates a Ref bound to this proxy and adds it to the
// reference registry the reclaimer scans on every cycle.
func (p *Proxy) NewRef() *Ref {
	r := &Ref{proxyEpoch: &p.epoch, proxy: p}
	p.mu.Lock()
	r.next = p.refs
	p.refs = r
	r.currentEpoch = xepoch.Epoch(p.epoch.Load())
	r.effectiveEpoch = r.currentEpoch
	p.mu.Unlock()
	return r
}

func (p *Proxy) removeRefLocked(r *Ref) {
	if p.refs == r {
		p.refs = r.next
	} else {
		for prev := p.refs; prev != nil; prev = prev.next {
			if prev.next == r {
				prev.next = r.next
				break
			}
		}
	}
	r.next = nil
	r.proxy = nil
	r.epoch.Store(0)
}

// Retire schedules obj for destruction via dtor once every reference
// that could have observed it has advanced past the epoch at which it
// was retired. It returns the epoch at which the retirement was
// recorded, or 0 if the retire queue is full — the caller then either
// retries later (the background goroutine, Reclaim, or RetireSync
// drains it; Retire itself never reclaims) or switches to RetireSync to
// wait out the backlog.
func (p *Proxy) Retire(obj any, dtor func(any)) xepoch.Epoch {
	return p.retire(obj, dtor, nil)
}

// RetireWithExpiry behaves like Retire, but first calls setExpiry with
// the epoch obj is being retired at, letting the caller stash that
// epoch on obj itself for later comparison in a Ref.Next getExpiry
// callback (the common pattern for epoch-tagged list nodes).
func (p *Proxy) RetireWithExpiry(obj any, dtor func(any), setExpiry func(xepoch.Epoch, any)) xepoch.Epoch {
	return p.retire(obj, dtor, setExpiry)
}

func (p *Proxy) retire(obj any, dtor func(any), setExpiry func(xepoch.Epoch, any)) xepoch.Epoch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueueLocked(obj, dtor, setExpiry)
}

func (p *Proxy) enqueueLocked(obj any, dtor func(any), setExpiry func(xepoch.Epoch, any)) xepoch.Epoch {
	newTail := p.queue.Enqueue(obj, retireq.Dtor(dtor))
	if newTail == 0 {
		p.logger.Warn().Msg("smrproxy: retire queue full, retirement rejected")
		return 0
	}
	if setExpiry != nil {
		setExpiry(newTail, obj)
	}
	p.epoch.Store(uint32(newTail))
	p.cond.Broadcast()
	return newTail
}

// RetireSync behaves like Retire but blocks until the object has
// actually been handed to dtor, forcing reclamation as needed. ref
// must be the calling goroutine's own Ref on this proxy (or nil, if
// the caller holds none); if ref is currently acquired, RetireSync
// returns ErrDeadlock immediately instead of blocking forever waiting
// on a reference that only the caller itself can release.
func (p *Proxy) RetireSync(ref *Ref, obj any, dtor func(any)) (xepoch.Epoch, error) {
	return p.retireSync(ref, obj, dtor, nil)
}

// RetireSyncWithExpiry combines RetireSync and RetireWithExpiry.
func (p *Proxy) RetireSyncWithExpiry(ref *Ref, obj any, dtor func(any), setExpiry func(xepoch.Epoch, any)) (xepoch.Epoch, error) {
	return p.retireSync(ref, obj, dtor, setExpiry)
}

func (p *Proxy) retireSync(ref *Ref, obj any, dtor func(any), setExpiry func(xepoch.Epoch, any)) (xepoch.Epoch, error) {
	if ref != nil && ref.epoch.Load() != 0 {
		return 0, ErrDeadlock
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	retryInterval := time.Duration(p.cfg.PollTimeMS) * time.Millisecond

	var epoch xepoch.Epoch
	for {
		epoch = p.enqueueLocked(obj, dtor, setExpiry)
		if epoch != 0 {
			break
		}
		p.reclaimLocked()
		if p.queue.Full() {
			// No Background goroutine may exist to pump reclaimLocked
			// again on our behalf, and a reader releasing never
			// broadcasts on its own, so this wait must time out and
			// retry rather than rely solely on a wakeup — matching the
			// original's poll_wait-based retry rather than a single
			// blocking wait.
			p.waitTimeoutLocked(retryInterval)
		}
		if !p.active.Load() {
			return 0, ErrClosed
		}
	}

	for {
		oldest := p.reclaimLocked()
		if xepoch.Cmp(oldest, epoch) >= 0 || p.queue.Empty() {
			return epoch, nil
		}
		if !p.active.Load() {
			return epoch, ErrClosed
		}
		p.waitTimeoutLocked(retryInterval)
	}
}

// Reclaim runs one reclamation cycle on demand and returns the epoch
// it advanced the retire queue's head to. Callers that disable
// Config.Background are expected to call this from their own event
// loop; it is also safe to call alongside a background goroutine.
func (p *Proxy) Reclaim() xepoch.Epoch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reclaimLocked()
}

// reclaimLocked implements the augmented reclaim cycle: it tracks each
// reference's effective epoch across cycles. A released reference's
// effective epoch is set to the current epoch; an acquired one's only
// moves forward, to the epoch it reports when that is newer, so an
// observed epoch older than the effective one is ignored. References
// whose effective epoch is behind head are skipped, and the queue is
// dequeued up to the oldest remaining effective epoch (or the current
// epoch, if that is older).
func (p *Proxy) reclaimLocked() xepoch.Epoch {
	current := xepoch.Epoch(p.epoch.Load())
	if xepoch.Cmp(current, p.syncEpoch) != 0 {
		p.syncEpoch = current
		p.membar.Sync()
	}

	if p.queue.Empty() {
		return p.head
	}

	oldest := current
	for r := p.refs; r != nil; r = r.next {
		r.currentEpoch = current
		observed := xepoch.Epoch(r.epoch.Load())
		switch {
		case observed == 0:
			r.effectiveEpoch = current
		case xepoch.Cmp(observed, r.effectiveEpoch) > 0:
			r.effectiveEpoch = observed
		}
		if xepoch.Cmp(r.effectiveEpoch, p.head) < 0 {
			continue // reference has not caught up to the last cycle yet; ignore its stale epoch
		}
		if xepoch.Cmp(r.effectiveEpoch, oldest) < 0 {
			oldest = r.effectiveEpoch
		}
	}

	prevHead := p.head
	p.head = p.queue.Dequeue(oldest)
	if xepoch.Cmp(p.head, prevHead) != 0 {
		// Wake anyone waiting on this cycle's outcome (RetireSync's
		// blocking loops in particular): Dequeue just ran destructors,
		// and nothing else broadcasts on their behalf.
		p.cond.Broadcast()
	}
	p.logger.Debug().
		Uint32("oldest", uint32(oldest)).
		Uint32("head", uint32(p.head)).
		Msg("smrproxy: reclaim cycle")
	return p.head
}

func (p *Proxy) pollLoop() {
	defer close(p.pollDone)

	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		p.reclaimLocked()
		if !p.active.Load() {
			return
		}
		if p.queue.Empty() {
			p.cond.Wait()
		} else {
			p.waitTimeoutLocked(time.Duration(p.cfg.PollTimeMS) * time.Millisecond)
		}
		if !p.active.Load() {
			return
		}
	}
}

// waitTimeoutLocked waits on p.cond, or returns once d has elapsed,
// whichever comes first. p.mu must be held on entry, as sync.Cond.Wait
// requires, and is held again on return.
func (p *Proxy) waitTimeoutLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	p.cond.Wait()
	timer.Stop()
}

// Close stops the background reclaim goroutine (if any), detaches
// every outstanding Ref, drains the retire queue — running every
// remaining destructor regardless of epoch, since no reader can
// observe anything past this point — and releases the membarrier
// syncer. It is not safe to call Retire, NewRef, or Reclaim after
// Close returns.
func (p *Proxy) Close() error {
	p.mu.Lock()
	background := p.cfg.Background
	p.active.Store(false)
	p.cond.Broadcast()
	p.mu.Unlock()

	if background {
		<-p.pollDone
	}

	p.mu.Lock()
	for p.refs != nil {
		next := p.refs.next
		p.refs.next = nil
		p.refs.proxy = nil
		p.refs.epoch.Store(0)
		p.refs = next
	}
	p.queue.DrainAll()
	p.mu.Unlock()

	return p.membar.Close()
}
