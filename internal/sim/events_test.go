package sim

import "testing"

func TestPolicyTrackerFirstThenDeltas(t *testing.T) {
	type call struct {
		ev    PolicyChange
		prev  string
		first bool
	}
	var calls []call

	bus := NewBus()
	tracker := NewPolicyTracker(func(ev PolicyChange, prev string, first bool) {
		calls = append(calls, call{ev, prev, first})
	})
	bus.Subscribe(tracker.Handle)

	bus.Publish(PolicyChange{Country: "Italy", Day: 1, Policy: "no-travel"})
	bus.Publish(PolicyChange{Country: "Italy", Day: 2, Policy: "no-travel"})
	bus.Publish(PolicyChange{Country: "Italy", Day: 3, Policy: "open"})
	bus.Publish(PolicyChange{Country: "Spain", Day: 3, Policy: "reduced"})

	if len(calls) != 3 {
		t.Fatalf("expected 3 reportable transitions, got %d", len(calls))
	}
	if !calls[0].first || calls[0].ev.Policy != "no-travel" {
		t.Errorf("first observation wrong: %+v", calls[0])
	}
	if calls[1].first || calls[1].prev != "no-travel" || calls[1].ev.Policy != "open" {
		t.Errorf("delta wrong: %+v", calls[1])
	}
	if !calls[2].first || calls[2].ev.Country != "Spain" {
		t.Errorf("second country first observation wrong: %+v", calls[2])
	}
}

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	got := 0
	bus.Subscribe(func(PolicyChange) { got++ })
	bus.Subscribe(func(PolicyChange) { got++ })

	bus.Publish(PolicyChange{Country: "X", Day: 1, Policy: "open"})

	if got != 2 {
		t.Errorf("expected both subscribers called, got %d", got)
	}
}
