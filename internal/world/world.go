// Package world builds the simulated world from configuration and
// registers it with the persistence sink: brand catalogs, countries
// with rosters and lockdown calendars, the pre-epidemic vaccination
// bootstrap, and budget snapshots.
package world

import (
	"fmt"
	"math/rand"

	"github.com/rcalvo/outbreaksim/internal/config"
	"github.com/rcalvo/outbreaksim/internal/sim"
)

// Build constructs the countries and their rosters, runs the initial
// vaccination, and registers everything with rec. Patients and
// countries carry the identifiers the sink assigned.
func Build(cfg config.Params, rec sim.Recorder, rng *rand.Rand) ([]*sim.Country, error) {
	for brand, b := range cfg.Vaccines {
		if err := rec.UpsertVaccine(brand, b.Efficacy, b.UnitCost); err != nil {
			return nil, fmt.Errorf("register vaccine catalog: %w", err)
		}
	}
	for brand, b := range cfg.Treatments {
		if err := rec.UpsertTreatment(brand, b.Efficacy, b.UnitCost); err != nil {
			return nil, fmt.Errorf("register treatment catalog: %w", err)
		}
	}

	countries := make([]*sim.Country, 0, len(cfg.Countries))
	for _, spec := range cfg.Countries {
		c := sim.NewCountry(spec, cfg.Budget(spec.Name), cfg.TransmissionBase)
		for i := 0; i < cfg.PopulationPerCountry; i++ {
			c.Patients = append(c.Patients, sim.NewPatient(rng, c, cfg.RespiratoryDiseaseProb, cfg.SuperspreaderProb))
		}
		c.InitialVaccination(rng, &cfg)
		countries = append(countries, c)
	}

	for _, c := range countries {
		id, err := rec.RegisterCountry(c.Name, len(c.Patients), c.PrimaryVaccine(), c.PrimaryTreatment(), c.MaskProb)
		if err != nil {
			return nil, fmt.Errorf("register country %s: %w", c.Name, err)
		}
		c.ID = id

		if err := rec.RecordLockdowns(c.ID, c.Lockdowns); err != nil {
			return nil, fmt.Errorf("record lockdowns for %s: %w", c.Name, err)
		}

		vaccineUnits := 0
		for _, units := range c.VaccineUnitsGiven {
			vaccineUnits += units
		}
		err = rec.RecordBudget(c.ID, vaccineUnits, 0,
			cfg.Vaccines[c.PrimaryVaccine()].UnitCost,
			cfg.Treatments[c.PrimaryTreatment()].UnitCost)
		if err != nil {
			return nil, fmt.Errorf("record budget for %s: %w", c.Name, err)
		}

		if err := rec.RecordVaccineUsage(c.ID, c.VaccineUnitsGiven); err != nil {
			return nil, fmt.Errorf("record vaccine usage for %s: %w", c.Name, err)
		}

		for _, p := range c.Patients {
			pid, err := rec.RegisterPatient(c.ID, p)
			if err != nil {
				return nil, fmt.Errorf("register patient in %s: %w", c.Name, err)
			}
			p.ID = pid
		}
	}

	return countries, nil
}
