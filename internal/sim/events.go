package sim

import "sync"

// PolicyChange is published once per country per day with the active
// travel policy.
type PolicyChange struct {
	Country string
	Day     int
	Policy  string
}

// Bus fans policy events out to registered callbacks. Publication is
// synchronous inside the day loop, so observers see events in day
// order.
type Bus struct {
	mu   sync.Mutex
	subs []func(PolicyChange)
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a callback for future events.
func (b *Bus) Subscribe(fn func(PolicyChange)) {
	b.mu.Lock()
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber, in subscription
// order, on the caller's goroutine.
func (b *Bus) Publish(ev PolicyChange) {
	b.mu.Lock()
	subs := make([]func(PolicyChange), len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// PolicyTracker reduces the per-day policy stream to the reportable
// transitions: the first observation for each country, then only
// changes of policy identity.
type PolicyTracker struct {
	mu       sync.Mutex
	last     map[string]string
	onChange func(ev PolicyChange, previous string, first bool)
}

// NewPolicyTracker wires the callback invoked on each reportable
// transition.
func NewPolicyTracker(onChange func(ev PolicyChange, previous string, first bool)) *PolicyTracker {
	return &PolicyTracker{
		last:     make(map[string]string),
		onChange: onChange,
	}
}

// Handle is the Bus subscription entry point.
func (t *PolicyTracker) Handle(ev PolicyChange) {
	t.mu.Lock()
	prev, seen := t.last[ev.Country]
	t.last[ev.Country] = ev.Policy
	t.mu.Unlock()

	if !seen {
		t.onChange(ev, "", true)
	} else if prev != ev.Policy {
		t.onChange(ev, prev, false)
	}
}
