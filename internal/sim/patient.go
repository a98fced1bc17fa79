// Package sim implements the day-stepped epidemic simulation: the
// patient/country data model, the disease progression state machine,
// resource allocation, travel policies, cross-country migration and
// the concurrent engine that drives them. All shared mutable state is
// guarded by one mutex per country; functions with a Locked suffix
// require the country's lock to be held by the caller.
package sim

import "math/rand"

// State is a patient's disease state. Transitions only move forward:
// healthy -> infected -> recovered or dead. Recovered and dead are
// absorbing.
type State int

const (
	Healthy State = iota
	Infected
	Recovered
	Dead
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Infected:
		return "infected"
	case Recovered:
		return "recovered"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// Patient is one individual. Demographics are fixed at creation;
// disease state and intervention flags are mutated only under the
// owning country's lock.
type Patient struct {
	ID          string // assigned by the persistence sink
	Nationality string // country of origin, fixed
	Country     *Country

	Sex                string // "M" or "F"
	Age                int
	Mask               bool
	RespiratoryDisease bool
	Superspreader      bool

	State            State
	DaysInfected     int
	InfectiousPeriod int // 0 until first infection, then immutable for the episode
	Hospitalized     bool

	Vaccinated    bool
	VaccineType   string
	HasTreatment  bool
	TreatmentType string
}

// NewPatient creates a patient with randomized demographics for the
// given country.
func NewPatient(rng *rand.Rand, c *Country, respiratoryProb, superspreaderProb float64) *Patient {
	sex := "F"
	if rng.Intn(2) == 0 {
		sex = "M"
	}
	return &Patient{
		Nationality:        c.Name,
		Country:            c,
		Sex:                sex,
		Age:                1 + rng.Intn(90),
		Mask:               rng.Float64() < c.MaskProb,
		RespiratoryDisease: rng.Float64() < respiratoryProb,
		Superspreader:      rng.Float64() < superspreaderProb,
	}
}

// Reset restores the patient to the clean pre-epidemic state so a run
// can be repeated from day zero. Vaccination survives a reset only if
// performed by the bootstrap; the engine resets before seeding.
func (p *Patient) Reset() {
	p.State = Healthy
	p.DaysInfected = 0
	p.InfectiousPeriod = 0
	p.HasTreatment = false
	p.TreatmentType = ""
	p.Hospitalized = false
}

// HighRisk reports whether the patient gets priority care.
func (p *Patient) HighRisk() bool {
	return p.Age >= 65 || p.RespiratoryDisease
}

// BaselineDeathProbability is the per-patient mortality base. The
// factors compose multiplicatively and are order independent.
func (p *Patient) BaselineDeathProbability() float64 {
	base := 0.02
	if p.Age > 60 {
		base *= 3
	} else if p.Age > 40 {
		base *= 2
	}
	if p.Sex == "M" {
		base *= 1.15
	}
	if p.RespiratoryDisease {
		base *= 2
	}
	return base
}
