package sim

import (
	"math/rand"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// TravelPolicy decides whether and where a patient travels on a given
// day. Implementations are stateless values; the schedule and the
// adaptive override are pure functions of (country, day, rate).
type TravelPolicy interface {
	TravelProbability(p *Patient, day int) float64
	PickDestination(rng *rand.Rand, p *Patient, countries []*Country) *Country
	Name() string
}

// reducedFraction is the share of the base probability used by the
// restricted-mobility policy.
const reducedFraction = 0.10

// NoTravel closes the borders entirely.
type NoTravel struct{}

func (NoTravel) TravelProbability(*Patient, int) float64 { return 0 }
func (NoTravel) PickDestination(*rand.Rand, *Patient, []*Country) *Country {
	return nil
}
func (NoTravel) Name() string { return "no-travel" }

// ReducedTravel allows a fixed fraction of the base probability.
type ReducedTravel struct {
	Base float64
}

func (t ReducedTravel) TravelProbability(*Patient, int) float64 {
	return t.Base * reducedFraction
}
func (ReducedTravel) PickDestination(rng *rand.Rand, p *Patient, countries []*Country) *Country {
	return randomOtherCountry(rng, p, countries)
}
func (ReducedTravel) Name() string { return "reduced" }

// OpenTravel uses the full base probability.
type OpenTravel struct {
	Base float64
}

func (t OpenTravel) TravelProbability(*Patient, int) float64 { return t.Base }
func (OpenTravel) PickDestination(rng *rand.Rand, p *Patient, countries []*Country) *Country {
	return randomOtherCountry(rng, p, countries)
}
func (OpenTravel) Name() string { return "open" }

func randomOtherCountry(rng *rand.Rand, p *Patient, countries []*Country) *Country {
	choices := make([]*Country, 0, len(countries))
	for _, c := range countries {
		if c != p.Country {
			choices = append(choices, c)
		}
	}
	if len(choices) == 0 {
		return nil
	}
	return choices[rng.Intn(len(choices))]
}

// ScheduledPolicy is the fixed day-banded schedule: everything closed
// on day 1, designated open countries at full mobility early and
// late, one strict country closed mid-run, everyone else at reduced
// mobility.
func ScheduledPolicy(cfg *config.Params, countryName string, day int) TravelPolicy {
	base := cfg.BaseTravelProb

	if day == 1 {
		return NoTravel{}
	}

	if day >= 2 && day <= 9 {
		for _, open := range cfg.Schedule.EarlyOpen {
			if countryName == open {
				return OpenTravel{Base: base}
			}
		}
		return ReducedTravel{Base: base}
	}

	if day >= 10 && day <= 20 {
		if countryName == cfg.Schedule.MidStrict {
			return NoTravel{}
		}
		return ReducedTravel{Base: base}
	}

	if countryName == cfg.Schedule.LateOpen {
		return OpenTravel{Base: base}
	}
	return ReducedTravel{Base: base}
}

// AdaptivePolicy overrides the schedule for designated countries once
// the run is past day 3, mapping the observed infection rate through
// country-specific threshold bands.
func AdaptivePolicy(cfg *config.Params, c *Country, day int, infectionRate float64) TravelPolicy {
	if day <= 3 {
		return ScheduledPolicy(cfg, c.Name, day)
	}

	th, ok := cfg.Adaptive[c.Name]
	if !ok {
		return ScheduledPolicy(cfg, c.Name, day)
	}

	switch {
	case infectionRate > th.High:
		return NoTravel{}
	case infectionRate > th.Medium:
		return ReducedTravel{Base: cfg.BaseTravelProb}
	default:
		return OpenTravel{Base: cfg.BaseTravelProb}
	}
}
