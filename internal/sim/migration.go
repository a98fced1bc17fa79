package sim

import "math/rand"

// TravelRecorder receives one event per completed trip, keyed by the
// sink identifiers of both endpoints.
type TravelRecorder interface {
	RecordTravel(originID, destID string)
}

// Router executes cross-country relocation. The two critical sections
// (origin removal, destination insertion) use independent locks and
// are never held simultaneously, so no cross-country lock order
// exists to deadlock on.
type Router struct {
	countries []*Country
	recorder  TravelRecorder
}

// NewRouter builds a router over the world's countries. recorder may
// be nil.
func NewRouter(countries []*Country, recorder TravelRecorder) *Router {
	return &Router{countries: countries, recorder: recorder}
}

// TryTravel decides and, if allowed, performs one trip for the
// patient. Returns true only when the patient actually moved.
func (r *Router) TryTravel(rng *rand.Rand, p *Patient, policy TravelPolicy, day int) bool {
	if p.State == Dead {
		return false
	}

	if rng.Float64() > policy.TravelProbability(p, day) {
		return false
	}

	destination := policy.PickDestination(rng, p, r.countries)
	if destination == nil || destination == p.Country {
		return false
	}

	origin := p.Country

	origin.mu.Lock()
	// The patient may have been moved by another worker since the
	// probability draw; only the roster is authoritative.
	idx := -1
	for i, other := range origin.Patients {
		if other == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		origin.mu.Unlock()
		return false
	}
	origin.Patients = append(origin.Patients[:idx], origin.Patients[idx+1:]...)
	origin.TravellersOutToday++
	origin.mu.Unlock()

	destination.mu.Lock()
	destination.Patients = append(destination.Patients, p)
	destination.TravellersInToday++
	destination.mu.Unlock()

	p.Country = destination

	if r.recorder != nil && origin.ID != "" && destination.ID != "" {
		r.recorder.RecordTravel(origin.ID, destination.ID)
	}

	return true
}
