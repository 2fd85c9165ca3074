package quota

import (
	"context"
	"errors"
	"sync"
)

// ErrExhausted is returned when every candidate for a capability class
// denied the reservation
var ErrExhausted = errors.New("all backends exhausted")

// Router picks a concrete backend for a requested capability class,
// enforcing each candidate's budget through the shared ledger. Preference
// lists are data: adding or removing a backend is a configuration change.
type Router struct {
	ledger  *Ledger
	limiter *Limiter

	mu    sync.RWMutex
	prefs map[string][]string // capability class -> ordered candidate capabilities
}

// NewRouter creates a router over the given ledger and limiter.
// The limiter may be nil, in which case only windowed quotas apply.
func NewRouter(ledger *Ledger, limiter *Limiter) *Router {
	return &Router{
		ledger:  ledger,
		limiter: limiter,
		prefs:   make(map[string][]string),
	}
}

// SetPreference installs the ordered candidate list for a capability class
func (r *Router) SetPreference(class string, candidates []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[class] = append([]string(nil), candidates...)
}

// Reservation is a claimed unit of budget on one backend. Exactly one of
// Commit or Release must be called once the external call settles.
type Reservation struct {
	Capability string

	ledger *Ledger
	once   sync.Once
}

// Commit records the reservation as spent after a successful call
func (res *Reservation) Commit() {
	res.once.Do(func() {
		res.ledger.Commit(res.Capability)
	})
}

// Release returns the reservation unspent after a failed call
func (res *Reservation) Release() {
	res.once.Do(func() {
		res.ledger.Release(res.Capability)
	})
}

// Exhaust releases the reservation and marks the backend spent until its
// window resets. Used when the provider itself reported rate limiting.
func (res *Reservation) Exhaust() {
	res.once.Do(func() {
		res.ledger.Release(res.Capability)
		res.ledger.Exhaust(res.Capability)
	})
}

// Acquire walks the class's candidates in preference order and reserves
// budget on the first one whose window permits it. Returns ErrExhausted
// when every candidate denies. Candidates named in skip are passed over,
// letting a caller fall back past a backend that just failed in transport.
//
// The limiter only smooths: once the ledger has granted a reservation,
// Acquire waits for the capability's rate to clear rather than denying.
// Budget the window still permits is never converted into a denial.
func (r *Router) Acquire(ctx context.Context, class string, skip ...string) (*Reservation, error) {
	r.mu.RLock()
	candidates := r.prefs[class]
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, ErrUnknownCapability
	}

	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	for _, capability := range candidates {
		if skipped[capability] {
			continue
		}
		err := r.ledger.Reserve(capability)
		if errors.Is(err, ErrUnknownCapability) {
			return nil, err
		}
		if err != nil {
			// Denied: advance to the next candidate
			continue
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, capability); err != nil {
				r.ledger.Release(capability)
				return nil, err
			}
		}
		return &Reservation{Capability: capability, ledger: r.ledger}, nil
	}

	return nil, ErrExhausted
}
