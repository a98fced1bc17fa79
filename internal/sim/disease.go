package sim

import (
	"math/rand"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// AllocateTreatment runs the admission-control pass for a freshly
// infected patient: treatment under budget and daily limits, and
// hospitalization for high-risk patients while beds last.
func AllocateTreatment(rng *rand.Rand, cfg *config.Params, c *Country, p *Patient) {
	c.mu.Lock()
	allocateTreatmentLocked(rng, cfg, c, p)
	c.mu.Unlock()
}

// allocateTreatmentLocked requires c.mu to be held. It is called from
// the infection path, which already holds the lock while flipping the
// contact to infected.
func allocateTreatmentLocked(rng *rand.Rand, cfg *config.Params, c *Country, p *Patient) {
	p.Hospitalized = false

	if len(c.Treatments) == 0 {
		p.HasTreatment = false
		p.TreatmentType = ""
		return
	}

	highRisk := p.HighRisk()

	brand := c.Treatments[rng.Intn(len(c.Treatments))]
	cost := cfg.Treatments[brand].UnitCost

	canTreatToday := c.BudgetRemaining >= cost && c.TreatmentsGivenToday < c.MaxDailyTreatments

	if canTreatToday {
		// The reserve rule keeps 30% of the total budget for
		// high-risk patients only.
		safetyThreshold := 0.3 * c.BudgetTotal
		if highRisk || c.BudgetRemaining > safetyThreshold {
			p.HasTreatment = true
			p.TreatmentType = brand
			c.BudgetRemaining -= cost
			c.SpentTreatments += cost
			c.TreatmentsGivenToday++
		} else {
			p.HasTreatment = false
			p.TreatmentType = ""
		}
	} else {
		p.HasTreatment = false
		p.TreatmentType = ""
	}

	if highRisk && c.CurrentHospitalized < c.HospitalCapacity {
		p.Hospitalized = true
		c.CurrentHospitalized++
	}
}

// InfectionStep advances one patient one day: contact transmission
// while contagious, a daily mortality draw, and episode resolution
// when the infectious period ends. It is a no-op for patients that
// are not currently infected.
func InfectionStep(rng *rand.Rand, cfg *config.Params, p *Patient, c *Country, day int) {
	c.mu.Lock()
	if p.State != Infected {
		c.mu.Unlock()
		return
	}

	// First activation of this episode.
	if p.InfectiousPeriod == 0 {
		p.InfectiousPeriod = drawInfectiousPeriod(rng, cfg)
	}

	daysInfected := p.DaysInfected
	period := p.InfectiousPeriod
	hospitalized := p.Hospitalized

	var healthy []*Patient
	if daysInfected < period {
		for _, other := range c.Patients {
			if other.State == Healthy {
				healthy = append(healthy, other)
			}
		}
	}

	base := c.BaseTransmission
	c.mu.Unlock()

	highRisk := p.HighRisk()

	// Contagious phase: sample today's contacts and attempt to
	// infect each one.
	if daysInfected < period {
		contacts := cfg.ContactsMin + rng.Intn(cfg.ContactsMax-cfg.ContactsMin+1)
		if c.InLockdown(day) {
			contacts = max(1, int(float64(contacts)*cfg.LockdownContactFactor))
		}
		if p.Superspreader {
			contacts *= cfg.SuperspreaderMultiplier
		}

		for _, target := range samplePatients(rng, healthy, contacts) {
			prob := base
			if target.Mask {
				prob *= 1 - cfg.MaskEffectiveness
			}
			if p.Mask {
				prob *= 1 - cfg.MaskEffectiveness
			}
			if target.Vaccinated {
				vtype := target.VaccineType
				if vtype == "" {
					vtype = c.PrimaryVaccine()
				}
				prob *= 1 - EffectiveVaccineEfficacy(cfg, vtype, day)
			}

			if rng.Float64() < prob {
				c.mu.Lock()
				// Re-check under the lock: another worker may have
				// infected the same contact since the snapshot.
				if target.State == Healthy {
					target.State = Infected
					target.DaysInfected = 0
					target.InfectiousPeriod = drawInfectiousPeriod(rng, cfg)
					allocateTreatmentLocked(rng, cfg, c, target)
				}
				c.mu.Unlock()
			}
		}
	}

	// Daily mortality draw, independent of the contact phase.
	deathProb := p.BaselineDeathProbability() * cfg.DailyDeathMultiplier
	if hospitalized {
		deathProb *= 0.5
	} else if highRisk {
		deathProb *= 1.5
	}
	if rng.Float64() < deathProb {
		c.mu.Lock()
		releaseBedLocked(c, p)
		p.State = Dead
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	p.DaysInfected++

	// Episode end: resolve the outcome with two sequential draws,
	// treatment efficacy first, then the scaled final death chance.
	if p.DaysInfected >= p.InfectiousPeriod {
		treatEff := 0.0
		if p.HasTreatment {
			treatEff = cfg.Treatments[p.TreatmentType].Efficacy
		}

		finalDeathProb := p.BaselineDeathProbability() * cfg.FinalDeathMultiplier
		if p.Hospitalized {
			finalDeathProb *= 0.5
		} else if highRisk {
			finalDeathProb *= 1.5
		}

		outcome := Recovered
		if rng.Float64() >= treatEff && rng.Float64() < finalDeathProb {
			outcome = Dead
		}

		releaseBedLocked(c, p)
		p.State = outcome
	}
	c.mu.Unlock()
}

// releaseBedLocked frees the patient's hospital slot, if any. Requires
// c.mu held.
func releaseBedLocked(c *Country, p *Patient) {
	if p.Hospitalized && c.CurrentHospitalized > 0 {
		c.CurrentHospitalized--
		p.Hospitalized = false
	}
}

// EffectiveVaccineEfficacy returns the catalog efficacy of a brand,
// reduced by the variant drop (floored at zero) once the variant has
// been introduced.
func EffectiveVaccineEfficacy(cfg *config.Params, brand string, day int) float64 {
	eff := cfg.Vaccines[brand].Efficacy
	if day >= cfg.VariantDay {
		eff = max(0.0, eff-cfg.VariantVaccineEffectivenessDrop)
	}
	return eff
}

func drawInfectiousPeriod(rng *rand.Rand, cfg *config.Params) int {
	return cfg.InfectiousPeriodMin + rng.Intn(cfg.InfectiousPeriodMax-cfg.InfectiousPeriodMin+1)
}

// samplePatients picks up to k patients without replacement via a
// partial Fisher-Yates shuffle of a copy.
func samplePatients(rng *rand.Rand, pool []*Patient, k int) []*Patient {
	if k >= len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return nil
	}
	picked := append([]*Patient(nil), pool...)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:k]
}
