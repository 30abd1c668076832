package core

import (
	"context"
	"log"
	"sync"
	"time"
)

// MinRefreshInterval is the floor applied to configured refresh intervals.
const MinRefreshInterval = 60 * time.Second

// Engine drives periodic refresh cycles for one session. Starting a cycle
// cancels the one still in flight, so the last cycle started is the one whose
// snapshot is published.
type Engine struct {
	mu       sync.Mutex
	provider UsageProvider
	session  *Session
	opts     RefreshOptions
	interval time.Duration
	timeout  time.Duration

	ticker    *time.Ticker
	paused    bool
	trigger   chan struct{}
	cycle     uint64
	inFlight  context.CancelFunc
	lastCycle time.Time
	now       func() time.Time

	snapshot    Snapshot
	hasSnapshot bool

	onUpdate func(Snapshot)
}

func NewEngine(provider UsageProvider, session *Session, interval time.Duration) *Engine {
	if interval < MinRefreshInterval {
		interval = MinRefreshInterval
	}
	return &Engine{
		provider: provider,
		session:  session,
		interval: interval,
		timeout:  45 * time.Second,
		trigger:  make(chan struct{}, 1),
		now:      time.Now,
	}
}

func (e *Engine) Session() *Session { return e.session }

func (e *Engine) Interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.interval
}

func (e *Engine) SetOptions(opts RefreshOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

func (e *Engine) OnUpdate(fn func(Snapshot)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = fn
}

func (e *Engine) Snapshot() (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot, e.hasSnapshot
}

// Refresh runs one cycle synchronously and publishes its snapshot unless a
// newer cycle started in the meantime.
func (e *Engine) Refresh(ctx context.Context) Snapshot {
	e.mu.Lock()
	if e.inFlight != nil {
		e.inFlight()
	}
	e.cycle++
	cycle := e.cycle
	e.lastCycle = e.now()
	cycleCtx, cancel := context.WithTimeout(ctx, e.timeout)
	e.inFlight = cancel
	opts := e.opts
	e.mu.Unlock()
	defer cancel()

	snap := e.provider.Fetch(cycleCtx, e.session, opts)

	e.mu.Lock()
	if cycle != e.cycle {
		e.mu.Unlock()
		log.Printf("[engine] cycle %d superseded, dropping result", cycle)
		return snap
	}
	e.inFlight = nil
	e.snapshot = snap
	e.hasSnapshot = true
	fn := e.onUpdate
	e.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
	return snap
}

// RequestRefresh schedules an immediate cycle on the Run loop.
func (e *Engine) RequestRefresh() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Logout stops the timer and cancels the in-flight cycle before clearing the
// session. Polling stays paused until Resume.
func (e *Engine) Logout() Invalidation {
	e.mu.Lock()
	e.paused = true
	if e.ticker != nil {
		e.ticker.Stop()
	}
	if e.inFlight != nil {
		e.inFlight()
		e.inFlight = nil
	}
	e.cycle++
	e.snapshot = Snapshot{}
	e.hasSnapshot = false
	e.mu.Unlock()

	return e.session.Logout()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	if e.ticker != nil {
		e.ticker.Reset(e.interval)
	}
}

// Invalidate drops the cached session state without pausing the timer. A
// fresh cycle is scheduled right away only if the last one started at least
// MinRefreshInterval ago; otherwise the next tick picks the change up.
func (e *Engine) Invalidate() {
	e.session.Logout()

	e.mu.Lock()
	due := e.lastCycle.IsZero() || e.now().Sub(e.lastCycle) >= MinRefreshInterval
	e.mu.Unlock()
	if due {
		e.RequestRefresh()
	}
}

func (e *Engine) Run(ctx context.Context) {
	e.mu.Lock()
	e.ticker = time.NewTicker(e.interval)
	ticker := e.ticker
	e.mu.Unlock()
	defer ticker.Stop()

	go e.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[engine] context cancelled, stopping refresh loop")
			return
		case <-ticker.C:
			if e.isPaused() {
				continue
			}
			go e.Refresh(ctx)
		case <-e.trigger:
			if e.isPaused() {
				continue
			}
			go e.Refresh(ctx)
		}
	}
}

func (e *Engine) isPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}
