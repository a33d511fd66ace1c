package timers

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultOfferSeconds is the countdown used when no positive duration is given.
const DefaultOfferSeconds = 30

const tickInterval = time.Second

// ExpiryFunc is invoked once, on its own goroutine, when a countdown hits zero.
type ExpiryFunc func(orderID string)

// TimerEntry is a read-only view of a live countdown.
type TimerEntry struct {
	OrderID   string    `json:"order_id"`
	Remaining int       `json:"remaining_sec"`
	Total     int       `json:"total_sec"`
	Deadline  time.Time `json:"deadline"`
}

// Tier returns the urgency tier of the entry.
func (t TimerEntry) Tier() Tier {
	return TierFor(t.Remaining, t.Total)
}

type entry struct {
	orderID   string
	total     int
	startedAt time.Time
	deadline  time.Time
	remaining int
	ticker    clockwork.Ticker
	stop      chan struct{}
	onExpire  ExpiryFunc
}

// remainingAt derives the remaining whole seconds from the absolute deadline,
// so elapsed time is never lost to skipped ticks.
func (e *entry) remainingAt(now time.Time) int {
	d := e.deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs > e.total {
		return e.total
	}
	return secs
}

func (e *entry) event(typ EventType, now time.Time) Event {
	remaining := e.remainingAt(now)
	return Event{
		Type:      typ,
		OrderID:   e.orderID,
		Remaining: remaining,
		Total:     e.total,
		Tier:      TierFor(remaining, e.total),
		Deadline:  e.deadline,
		At:        now,
	}
}

// Registry owns one countdown per order id. At most one live countdown exists
// per id, and an id whose countdown expired or was settled cannot be
// restarted until it is forgotten.
type Registry struct {
	clock clockwork.Clock

	mu      sync.Mutex
	live    map[string]*entry
	settled map[string]time.Time
	closed  bool

	// emitMu orders state transitions with their events, so no tick is
	// delivered after the clear that ended it.
	emitMu      sync.Mutex
	listenersMu sync.RWMutex
	listeners   []Listener

	loops    sync.WaitGroup
	handlers sync.WaitGroup
}

// NewRegistry creates a registry driven by clock.
// In production, use clockwork.NewRealClock(). In tests, a fake clock.
func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		clock:   clock,
		live:    make(map[string]*entry),
		settled: make(map[string]time.Time),
	}
}

// Subscribe registers a listener for timer events.
func (r *Registry) Subscribe(l Listener) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Start arms a countdown of totalSeconds for orderID. It is a no-op returning
// false when the id already has a live countdown or has been settled.
func (r *Registry) Start(orderID string, totalSeconds int, onExpire ExpiryFunc) bool {
	return r.start(orderID, totalSeconds, onExpire, false)
}

// Adopt makes onExpire the expiry handler for orderID. A live countdown keeps
// its deadline and only changes hands; otherwise a countdown of totalSeconds
// is armed. It returns false when the id has been settled.
func (r *Registry) Adopt(orderID string, totalSeconds int, onExpire ExpiryFunc) bool {
	return r.start(orderID, totalSeconds, onExpire, true)
}

func (r *Registry) start(orderID string, totalSeconds int, onExpire ExpiryFunc, adopt bool) bool {
	if orderID == "" {
		return false
	}
	if totalSeconds <= 0 {
		totalSeconds = DefaultOfferSeconds
	}

	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	if e, exists := r.live[orderID]; exists {
		if adopt {
			e.onExpire = onExpire
		}
		r.mu.Unlock()
		if adopt {
			log.Debug().Str("order_id", orderID).Msg("running timer adopted")
			return true
		}
		log.Debug().Str("order_id", orderID).Msg("skipping start - timer already running")
		return false
	}
	if _, done := r.settled[orderID]; done {
		r.mu.Unlock()
		log.Debug().Str("order_id", orderID).Msg("skipping start - order already settled")
		return false
	}

	now := r.clock.Now()
	e := &entry{
		orderID:   orderID,
		total:     totalSeconds,
		startedAt: now,
		deadline:  now.Add(time.Duration(totalSeconds) * time.Second),
		remaining: totalSeconds,
		ticker:    r.clock.NewTicker(tickInterval),
		stop:      make(chan struct{}),
		onExpire:  onExpire,
	}
	r.live[orderID] = e
	r.loops.Add(1)
	r.mu.Unlock()

	r.emit(e.event(EventTimerStarted, now))
	go r.run(e)

	log.Debug().
		Str("order_id", orderID).
		Int("total_sec", totalSeconds).
		Time("deadline", e.deadline).
		Msg("started order timer")
	return true
}

func (r *Registry) run(e *entry) {
	defer r.loops.Done()
	defer e.ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-e.ticker.Chan():
			if done := r.tick(e); done {
				return
			}
		}
	}
}

// tick recomputes the remaining time and expires the entry at zero.
// It reports whether the loop for e should exit.
func (r *Registry) tick(e *entry) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if r.live[e.orderID] != e {
		r.mu.Unlock()
		return true
	}
	now := r.clock.Now()
	remaining := e.remainingAt(now)
	if remaining == e.remaining {
		r.mu.Unlock()
		return false
	}
	e.remaining = remaining

	if remaining > 0 {
		r.mu.Unlock()
		r.emit(e.event(EventTimerTick, now))
		return false
	}

	delete(r.live, e.orderID)
	r.settled[e.orderID] = now
	onExpire := e.onExpire
	if onExpire != nil {
		r.handlers.Add(1)
	}
	r.mu.Unlock()

	r.emit(e.event(EventTimerExpired, now))
	log.Info().Str("order_id", e.orderID).Int("total_sec", e.total).Msg("order timer expired")

	// The expired state is published before the handler starts.
	if onExpire != nil {
		go r.dispatchExpiry(e.orderID, onExpire)
	}
	return true
}

func (r *Registry) dispatchExpiry(orderID string, onExpire ExpiryFunc) {
	defer r.handlers.Done()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("order_id", orderID).
				Msg("timer expiry handler panicked")
		}
	}()
	onExpire(orderID)
}

// Clear stops and removes the live countdown for orderID. Safe to call for
// unknown ids. A cleared id may be started again.
func (r *Registry) Clear(orderID string) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	e, exists := r.live[orderID]
	if exists {
		delete(r.live, orderID)
		close(e.stop)
	}
	now := r.clock.Now()
	r.mu.Unlock()

	if !exists {
		return false
	}
	r.emit(e.event(EventTimerCleared, now))
	log.Debug().Str("order_id", orderID).Msg("cleared order timer")
	return true
}

// ClearAll clears the given ids, or every live countdown when none are given.
// It returns how many countdowns were stopped.
func (r *Registry) ClearAll(orderIDs ...string) int {
	if len(orderIDs) == 0 {
		orderIDs = r.Live()
	}
	cleared := 0
	for _, id := range orderIDs {
		if r.Clear(id) {
			cleared++
		}
	}
	return cleared
}

// Settle claims the single terminal action for orderID: any live countdown is
// stopped and the id is marked settled. It returns false when the order was
// already settled, by expiry or by an earlier accept or reject.
func (r *Registry) Settle(orderID string) bool {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	if _, done := r.settled[orderID]; done {
		r.mu.Unlock()
		return false
	}
	now := r.clock.Now()
	e, exists := r.live[orderID]
	if exists {
		delete(r.live, orderID)
		close(e.stop)
	}
	r.settled[orderID] = now
	r.mu.Unlock()

	ev := Event{Type: EventTimerSettled, OrderID: orderID, Tier: TierCritical, At: now}
	if exists {
		ev = e.event(EventTimerSettled, now)
	}
	r.emit(ev)
	return true
}

// Forget drops the settled mark for orderID so a fresh offer can be armed.
func (r *Registry) Forget(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settled, orderID)
}

// IsSettled reports whether orderID has had its terminal action.
func (r *Registry) IsSettled(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, done := r.settled[orderID]
	return done
}

// IsLive reports whether orderID has a running countdown.
func (r *Registry) IsLive(orderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.live[orderID]
	return exists
}

// Remaining returns the seconds left for orderID, 0 once settled, or def when
// no countdown was ever started.
func (r *Registry) Remaining(orderID string, def int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, exists := r.live[orderID]; exists {
		return e.remainingAt(r.clock.Now())
	}
	if _, done := r.settled[orderID]; done {
		return 0
	}
	return def
}

// Get returns a snapshot of the live countdown for orderID.
func (r *Registry) Get(orderID string) (TimerEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, exists := r.live[orderID]
	if !exists {
		return TimerEntry{}, false
	}
	return TimerEntry{
		OrderID:   e.orderID,
		Remaining: e.remainingAt(r.clock.Now()),
		Total:     e.total,
		Deadline:  e.deadline,
	}, true
}

// Live returns the ids with running countdowns, sorted.
func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.live))
	for id := range r.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close stops every live countdown and waits for timer goroutines and
// in-flight expiry handlers to finish. The registry refuses new timers after.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	for id, e := range r.live {
		close(e.stop)
		delete(r.live, id)
	}
	r.mu.Unlock()

	r.loops.Wait()
	r.handlers.Wait()
	log.Info().Msg("order timer registry closed")
}

func (r *Registry) emit(ev Event) {
	r.listenersMu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.listenersMu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}
