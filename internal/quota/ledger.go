package quota

import (
	"errors"
	"sort"
	"sync"
	"time"

	"claimcheck/internal/model"
)

// ErrDenied is returned when a capability has no budget left in its window
var ErrDenied = errors.New("quota denied")

// ErrUnknownCapability is returned for capabilities never registered
var ErrUnknownCapability = errors.New("unknown capability")

// Window describes how a capability's usage counter resets
type Window int

const (
	// WindowMinute resets on wall-clock minute boundaries (model tiers)
	WindowMinute Window = iota
	// WindowMonth resets on the first of each month, UTC (search providers)
	WindowMonth
)

// counter tracks one capability's budget. used counts committed calls,
// reserved counts in-flight reservations not yet committed or released.
type counter struct {
	limit    int // 0 means unlimited
	used     int
	reserved int
	window   Window
	resetsAt time.Time
}

// Ledger tracks remaining call budget per capability over its billing
// window. Pure bookkeeping: it performs no I/O and holds no goroutines.
// Window rollovers happen lazily the first time a caller observes a
// window change, so resets are order-independent.
type Ledger struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time // Injectable for tests
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Register adds a capability with the given per-window limit.
// A limit of 0 means unlimited; usage is still counted for observability.
func (l *Ledger) Register(capability string, limit int, w Window) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.counters[capability] = &counter{
		limit:    limit,
		window:   w,
		resetsAt: nextBoundary(l.now().UTC(), w),
	}
}

// Reserve atomically claims one unit of budget. Two concurrent reservations
// against a counter with one remaining unit cannot both succeed. The caller
// must follow up with Commit after a successful external call, or Release
// if the call never completed, so the reservation does not leak.
func (l *Ledger) Reserve(capability string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[capability]
	if !ok {
		return ErrUnknownCapability
	}
	l.rollover(c)

	if c.limit > 0 && c.used+c.reserved >= c.limit {
		return ErrDenied
	}
	c.reserved++
	return nil
}

// Commit converts a reservation into committed usage
func (l *Ledger) Commit(capability string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[capability]
	if !ok {
		return
	}
	l.rollover(c)
	if c.reserved > 0 {
		c.reserved--
	}
	c.used++
	// Clamp if a provider silently overran its budget
	if c.limit > 0 && c.used > c.limit {
		c.used = c.limit
	}
}

// Release returns an unused reservation to the pool. Called when the
// external call failed in transport so quota is not wasted on work that
// never happened.
func (l *Ledger) Release(capability string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[capability]
	if !ok {
		return
	}
	l.rollover(c)
	if c.reserved > 0 {
		c.reserved--
	}
}

// Exhaust marks a capability as fully spent until its next window reset.
// Used when a provider reports rate limiting the ledger did not predict.
func (l *Ledger) Exhaust(capability string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[capability]
	if !ok {
		return
	}
	l.rollover(c)
	if c.limit > 0 {
		c.used = c.limit
	}
}

// Status reports one capability's counter
func (l *Ledger) Status(capability string) (model.QuotaStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[capability]
	if !ok {
		return model.QuotaStatus{}, ErrUnknownCapability
	}
	l.rollover(c)
	return l.statusLocked(capability, c), nil
}

// Snapshot reports all capabilities, sorted by name
func (l *Ledger) Snapshot() []model.QuotaStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make([]model.QuotaStatus, 0, len(l.counters))
	for name, c := range l.counters {
		l.rollover(c)
		statuses = append(statuses, l.statusLocked(name, c))
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Capability < statuses[j].Capability
	})
	return statuses
}

func (l *Ledger) statusLocked(name string, c *counter) model.QuotaStatus {
	remaining := 0
	if c.limit > 0 {
		remaining = c.limit - c.used - c.reserved
		if remaining < 0 {
			remaining = 0
		}
	}
	return model.QuotaStatus{
		Capability: name,
		Used:       c.used,
		Limit:      c.limit,
		Remaining:  remaining,
		ResetsAt:   c.resetsAt,
	}
}

// rollover lazily resets the counter when its window has passed.
// Caller must hold l.mu. In-flight reservations survive the rollover.
func (l *Ledger) rollover(c *counter) {
	now := l.now().UTC()
	if now.Before(c.resetsAt) {
		return
	}
	c.used = 0
	c.resetsAt = nextBoundary(now, c.window)
}

// nextBoundary returns the first window boundary strictly after now
func nextBoundary(now time.Time, w Window) time.Time {
	switch w {
	case WindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	default:
		return now.Truncate(time.Minute).Add(time.Minute)
	}
}
