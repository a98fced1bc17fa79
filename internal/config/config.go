// Package config holds the simulation parameter surface: global disease
// and travel parameters, brand catalogs, and the country roster.
// Values resolve in three layers: built-in defaults, an optional YAML
// file, then OUTBREAK_* environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Brand describes one vaccine or treatment product.
type Brand struct {
	Efficacy float64 `yaml:"efficacy"`
	UnitCost float64 `yaml:"unit_cost"`
}

// Interval is an inclusive day range, used for lockdown calendars.
type Interval struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether day falls inside the interval.
func (iv Interval) Contains(day int) bool {
	return iv.Start <= day && day <= iv.End
}

// CountrySpec declares one country of the simulated world.
type CountrySpec struct {
	Name       string     `yaml:"name"`
	Vaccines   []string   `yaml:"vaccines"`
	Treatments []string   `yaml:"treatments"`
	MaskProb   float64    `yaml:"mask_prob"`
	Lockdowns  []Interval `yaml:"lockdowns"`
}

// Thresholds are the adaptive-policy infection-rate bands for one
// country: above High travel closes, above Medium it is reduced,
// below Medium it is open.
type Thresholds struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// Schedule designates the countries with special treatment in the
// fixed day-banded travel schedule.
type Schedule struct {
	EarlyOpen []string `yaml:"early_open"` // days 2-9: full base probability
	MidStrict string   `yaml:"mid_strict"` // days 10-20: borders closed
	LateOpen  string   `yaml:"late_open"`  // days 21+: full base probability
}

// Params is the full simulation configuration.
type Params struct {
	Days                 int     `yaml:"days" env:"OUTBREAK_DAYS"`
	PopulationPerCountry int     `yaml:"population_per_country" env:"OUTBREAK_POPULATION"`
	InitialInfectedFrac  float64 `yaml:"initial_infected_frac" env:"OUTBREAK_INITIAL_INFECTED_FRAC"`
	SeedCountry          string  `yaml:"seed_country" env:"OUTBREAK_SEED_COUNTRY"`

	TransmissionBase        float64 `yaml:"transmission_base" env:"OUTBREAK_TRANSMISSION_BASE"`
	ContactsMin             int     `yaml:"contacts_min"`
	ContactsMax             int     `yaml:"contacts_max"`
	SuperspreaderMultiplier int     `yaml:"superspreader_multiplier"`
	MaskEffectiveness       float64 `yaml:"mask_effectiveness"`
	InfectiousPeriodMin     int     `yaml:"infectious_period_min"`
	InfectiousPeriodMax     int     `yaml:"infectious_period_max"`
	DailyDeathMultiplier    float64 `yaml:"daily_death_multiplier"`
	FinalDeathMultiplier    float64 `yaml:"final_death_multiplier"`
	LockdownContactFactor   float64 `yaml:"lockdown_contact_factor"`

	BaseTravelProb float64 `yaml:"base_travel_prob" env:"OUTBREAK_BASE_TRAVEL_PROB"`

	VariantDay                      int     `yaml:"variant_day" env:"OUTBREAK_VARIANT_DAY"`
	VariantTransmissionMultiplier   float64 `yaml:"variant_transmission_multiplier"`
	VariantVaccineEffectivenessDrop float64 `yaml:"variant_vaccine_effectiveness_drop"`

	VaccinationCampaignDay int `yaml:"vaccination_campaign_day" env:"OUTBREAK_CAMPAIGN_DAY"`

	RespiratoryDiseaseProb float64 `yaml:"respiratory_disease_prob"`
	SuperspreaderProb      float64 `yaml:"superspreader_prob"`
	InitialVaccinationProb float64 `yaml:"initial_vaccination_prob"`

	Workers   int `yaml:"workers" env:"OUTBREAK_WORKERS"`
	BatchSize int `yaml:"batch_size" env:"OUTBREAK_BATCH_SIZE"`

	Vaccines   map[string]Brand `yaml:"vaccines"`
	Treatments map[string]Brand `yaml:"treatments"`

	Budgets       map[string]float64 `yaml:"budgets"`
	DefaultBudget float64            `yaml:"default_budget"`

	Schedule  Schedule              `yaml:"schedule"`
	Adaptive  map[string]Thresholds `yaml:"adaptive"`
	Countries []CountrySpec         `yaml:"countries"`
}

// Default returns the built-in parameter set, matching the sample
// seven-country world.
func Default() Params {
	return Params{
		Days:                 30,
		PopulationPerCountry: 500,
		InitialInfectedFrac:  0.10,
		SeedCountry:          "Italy",

		TransmissionBase:        0.30,
		ContactsMin:             2,
		ContactsMax:             5,
		SuperspreaderMultiplier: 3,
		MaskEffectiveness:       0.5,
		InfectiousPeriodMin:     4,
		InfectiousPeriodMax:     7,
		DailyDeathMultiplier:    0.2,
		FinalDeathMultiplier:    0.7,
		LockdownContactFactor:   0.4,

		BaseTravelProb: 0.05,

		VariantDay:                      15,
		VariantTransmissionMultiplier:   1.5,
		VariantVaccineEffectivenessDrop: 0.3,

		VaccinationCampaignDay: 10,

		RespiratoryDiseaseProb: 0.12,
		SuperspreaderProb:      0.05,
		InitialVaccinationProb: 0.5,

		Workers:   32,
		BatchSize: 10,

		Vaccines: map[string]Brand{
			"A": {Efficacy: 0.9, UnitCost: 3},
			"B": {Efficacy: 0.7, UnitCost: 2},
			"C": {Efficacy: 0.5, UnitCost: 1},
		},
		Treatments: map[string]Brand{
			"T1": {Efficacy: 0.75, UnitCost: 1},
			"T2": {Efficacy: 0.6, UnitCost: 1},
		},

		Budgets: map[string]float64{
			"Germany": 1500,
			"France":  1000,
			"Italy":   850,
			"Spain":   700,
			"Sweden":  1000,
			"Belgium": 900,
			"UK":      1300,
		},
		DefaultBudget: 800,

		Schedule: Schedule{
			EarlyOpen: []string{"Italy", "Sweden"},
			MidStrict: "Germany",
			LateOpen:  "Sweden",
		},
		Adaptive: map[string]Thresholds{
			"Belgium": {High: 0.20, Medium: 0.05},
			"UK":      {High: 0.30, Medium: 0.10},
		},
		Countries: []CountrySpec{
			{Name: "Germany", Vaccines: []string{"A", "B"}, Treatments: []string{"T1", "T2"}, MaskProb: 0.9, Lockdowns: []Interval{{8, 17}, {23, 28}}},
			{Name: "Italy", Vaccines: []string{"C"}, Treatments: []string{"T1"}, MaskProb: 0.8, Lockdowns: []Interval{{5, 15}}},
			{Name: "France", Vaccines: []string{"A", "B"}, Treatments: []string{"T2"}, MaskProb: 0.6, Lockdowns: []Interval{{10, 18}, {22, 26}}},
			{Name: "Spain", Vaccines: []string{"B", "C"}, Treatments: []string{"T2"}, MaskProb: 0.7, Lockdowns: []Interval{{10, 22}}},
			{Name: "Sweden", Vaccines: []string{"C"}, Treatments: []string{"T2"}, MaskProb: 0.2},
			{Name: "Belgium", Vaccines: []string{"B", "C"}, Treatments: []string{"T2"}, MaskProb: 0.8, Lockdowns: []Interval{{1, 10}}},
			{Name: "UK", Vaccines: []string{"A", "B"}, Treatments: []string{"T1", "T2"}, MaskProb: 0.9, Lockdowns: []Interval{{12, 20}}},
		},
	}
}

// Load resolves the configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (Params, error) {
	p := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &p); err != nil {
			return p, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&p); err != nil {
		return p, fmt.Errorf("parse env: %w", err)
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Validate rejects configurations the engine cannot start from.
func (p Params) Validate() error {
	if p.Days <= 0 {
		return fmt.Errorf("config: days must be positive, got %d", p.Days)
	}
	if p.PopulationPerCountry <= 0 {
		return fmt.Errorf("config: population_per_country must be positive, got %d", p.PopulationPerCountry)
	}
	if p.ContactsMin > p.ContactsMax {
		return fmt.Errorf("config: contacts range inverted (%d > %d)", p.ContactsMin, p.ContactsMax)
	}
	if p.InfectiousPeriodMin > p.InfectiousPeriodMax {
		return fmt.Errorf("config: infectious period range inverted (%d > %d)", p.InfectiousPeriodMin, p.InfectiousPeriodMax)
	}
	if p.Workers <= 0 || p.BatchSize <= 0 {
		return fmt.Errorf("config: workers and batch_size must be positive")
	}
	if len(p.Countries) == 0 {
		return fmt.Errorf("config: no countries declared")
	}

	seedFound := false
	for _, c := range p.Countries {
		if c.Name == "" {
			return fmt.Errorf("config: country with empty name")
		}
		if len(c.Vaccines) == 0 {
			return fmt.Errorf("config: country %s has no vaccine catalog", c.Name)
		}
		if len(c.Treatments) == 0 {
			return fmt.Errorf("config: country %s has no treatment catalog", c.Name)
		}
		for _, v := range c.Vaccines {
			if _, ok := p.Vaccines[v]; !ok {
				return fmt.Errorf("config: country %s references unknown vaccine %q", c.Name, v)
			}
		}
		for _, t := range c.Treatments {
			if _, ok := p.Treatments[t]; !ok {
				return fmt.Errorf("config: country %s references unknown treatment %q", c.Name, t)
			}
		}
		if c.Name == p.SeedCountry {
			seedFound = true
		}
	}
	if !seedFound {
		return fmt.Errorf("config: seed country %q is not in the country roster", p.SeedCountry)
	}
	return nil
}

// Budget returns the total budget for a country, falling back to the
// default when the country has no explicit entry.
func (p Params) Budget(name string) float64 {
	if b, ok := p.Budgets[name]; ok {
		return b
	}
	return p.DefaultBudget
}
