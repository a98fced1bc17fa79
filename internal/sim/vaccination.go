package sim

import (
	"sort"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// RunVaccinationCampaign performs one country's daily campaign with
// the primary vaccine brand: it ranks living unvaccinated patients by
// risk (then age), and vaccinates the longest affordable prefix
// within the daily capacity. No-op before the campaign start day.
func RunVaccinationCampaign(cfg *config.Params, c *Country, day int) {
	if day < cfg.VaccinationCampaignDay {
		return
	}
	if len(c.Vaccines) == 0 {
		return
	}

	brand := c.PrimaryVaccine()
	unitCost := cfg.Vaccines[brand].UnitCost
	if unitCost <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	maxByBudget := int(c.BudgetRemaining / unitCost)
	if maxByBudget <= 0 {
		return
	}
	if c.DailyVaccinationCapacity <= 0 {
		return
	}

	maxToVaccinate := min(maxByBudget, c.DailyVaccinationCapacity)

	candidates := make([]*Patient, 0, len(c.Patients))
	for _, p := range c.Patients {
		if p.State != Dead && !p.Vaccinated {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return
	}

	// Descending by (high-risk, age); the stable sort keeps roster
	// order on ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		hi, hj := candidates[i].HighRisk(), candidates[j].HighRisk()
		if hi != hj {
			return hi
		}
		return candidates[i].Age > candidates[j].Age
	})

	if len(candidates) > maxToVaccinate {
		candidates = candidates[:maxToVaccinate]
	}

	for _, p := range candidates {
		// Budget can run out mid-pass.
		if c.BudgetRemaining < unitCost {
			break
		}
		if p.Vaccinated {
			continue
		}
		p.Vaccinated = true
		p.VaccineType = brand
		c.BudgetRemaining -= unitCost
		c.SpentVaccines += unitCost
		c.VaccinatedToday++
		c.VaccineUnitsGiven[brand]++
	}
}
