package sim

import (
	"math/rand"
	"sync"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// Country owns a patient roster and the health-system resources that
// constrain interventions. Every mutable field is guarded by mu; the
// roster is exclusively owned, a patient's Country field is a weak
// back-reference updated only by successful migration.
type Country struct {
	ID   string // assigned by the persistence sink
	Name string

	Vaccines   []string // non-empty, first entry is the primary brand
	Treatments []string
	MaskProb   float64
	Lockdowns  []config.Interval

	mu sync.Mutex

	Patients         []*Patient
	BaseTransmission float64

	BudgetTotal     float64
	BudgetRemaining float64
	SpentVaccines   float64
	SpentTreatments float64

	HospitalCapacity    int
	CurrentHospitalized int

	MaxDailyTreatments   int
	TreatmentsGivenToday int

	DailyVaccinationCapacity int
	VaccinatedToday          int

	TravellersInToday  int
	TravellersOutToday int

	CurrentPolicy TravelPolicy

	VaccineUnitsGiven map[string]int
}

// NewCountry builds an empty country from its spec. Health-system
// capacities derive from the total budget.
func NewCountry(spec config.CountrySpec, budget, baseTransmission float64) *Country {
	c := &Country{
		Name:             spec.Name,
		Vaccines:         append([]string(nil), spec.Vaccines...),
		Treatments:       append([]string(nil), spec.Treatments...),
		MaskProb:         spec.MaskProb,
		Lockdowns:        append([]config.Interval(nil), spec.Lockdowns...),
		BaseTransmission: baseTransmission,
		BudgetTotal:      budget,
		BudgetRemaining:  budget,

		HospitalCapacity:         max(50, int(budget)/4),
		MaxDailyTreatments:       max(20, int(budget)/8),
		DailyVaccinationCapacity: max(10, int(budget)/15),

		VaccineUnitsGiven: make(map[string]int),
	}
	for _, v := range c.Vaccines {
		c.VaccineUnitsGiven[v] = 0
	}
	return c
}

// PrimaryVaccine is the brand used by default campaigns.
func (c *Country) PrimaryVaccine() string {
	if len(c.Vaccines) == 0 {
		return ""
	}
	return c.Vaccines[0]
}

// PrimaryTreatment is the default treatment brand.
func (c *Country) PrimaryTreatment() string {
	if len(c.Treatments) == 0 {
		return ""
	}
	return c.Treatments[0]
}

// InLockdown reports whether day falls inside any lockdown interval.
func (c *Country) InLockdown(day int) bool {
	for _, iv := range c.Lockdowns {
		if iv.Contains(day) {
			return true
		}
	}
	return false
}

// UpdateTransmission recomputes the base transmission rate, applying
// the variant multiplier once the variant day is reached.
func (c *Country) UpdateTransmission(day int, cfg *config.Params) {
	base := cfg.TransmissionBase
	if day >= cfg.VariantDay {
		base *= cfg.VariantTransmissionMultiplier
	}
	c.mu.Lock()
	c.BaseTransmission = base
	c.mu.Unlock()
}

// ResetDayCounters clears the per-day admission and travel counters.
func (c *Country) ResetDayCounters() {
	c.mu.Lock()
	c.TreatmentsGivenToday = 0
	c.VaccinatedToday = 0
	c.TravellersInToday = 0
	c.TravellersOutToday = 0
	c.mu.Unlock()
}

// InfectionRate snapshots infected/population for the current roster.
func (c *Country) InfectionRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := len(c.Patients)
	if total == 0 {
		return 0
	}
	infected := 0
	for _, p := range c.Patients {
		if p.State == Infected {
			infected++
		}
	}
	return float64(infected) / float64(total)
}

// Population returns the current roster size.
func (c *Country) Population() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Patients)
}

// SetPolicy records the active travel policy for the day.
func (c *Country) SetPolicy(p TravelPolicy) {
	c.mu.Lock()
	c.CurrentPolicy = p
	c.mu.Unlock()
}

// AlivePatients snapshots the living members of the roster.
func (c *Country) AlivePatients() []*Patient {
	c.mu.Lock()
	defer c.mu.Unlock()
	alive := make([]*Patient, 0, len(c.Patients))
	for _, p := range c.Patients {
		if p.State != Dead {
			alive = append(alive, p)
		}
	}
	return alive
}

// InitialVaccination runs the pre-epidemic bootstrap campaign: each
// patient has a 50% (configurable) chance of being vaccinated with a
// random affordable brand while budget lasts.
func (c *Country) InitialVaccination(rng *rand.Rand, cfg *config.Params) {
	if len(c.Vaccines) == 0 {
		return
	}
	for _, p := range c.Patients {
		if rng.Float64() >= cfg.InitialVaccinationProb {
			continue
		}
		c.mu.Lock()
		if c.BudgetRemaining <= 0 {
			c.mu.Unlock()
			break
		}
		var affordable []string
		for _, v := range c.Vaccines {
			if c.BudgetRemaining >= cfg.Vaccines[v].UnitCost {
				affordable = append(affordable, v)
			}
		}
		if len(affordable) == 0 {
			c.mu.Unlock()
			break
		}
		brand := affordable[rng.Intn(len(affordable))]
		cost := cfg.Vaccines[brand].UnitCost
		p.Vaccinated = true
		p.VaccineType = brand
		c.BudgetRemaining -= cost
		c.SpentVaccines += cost
		c.VaccineUnitsGiven[brand]++
		c.mu.Unlock()
	}
}
