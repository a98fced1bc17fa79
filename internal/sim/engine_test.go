package sim

import (
	"math/rand"
	"testing"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// testWorld builds a small three-country world without the bootstrap
// randomness of the full sample.
func testWorld(t *testing.T, pop int) (config.Params, []*Country) {
	t.Helper()
	cfg := config.Default()
	cfg.PopulationPerCountry = pop
	cfg.Workers = 4
	cfg.BatchSize = 5
	cfg.Countries = []config.CountrySpec{
		{Name: "Italy", Vaccines: []string{"C"}, Treatments: []string{"T1"}, MaskProb: 0.8},
		{Name: "France", Vaccines: []string{"A"}, Treatments: []string{"T2"}, MaskProb: 0.6},
		{Name: "Spain", Vaccines: []string{"B"}, Treatments: []string{"T2"}, MaskProb: 0.7},
	}

	rng := rand.New(rand.NewSource(11))
	var countries []*Country
	for _, spec := range cfg.Countries {
		c := NewCountry(spec, cfg.Budget(spec.Name), cfg.TransmissionBase)
		for i := 0; i < pop; i++ {
			c.Patients = append(c.Patients, NewPatient(rng, c, cfg.RespiratoryDiseaseProb, cfg.SuperspreaderProb))
		}
		countries = append(countries, c)
	}
	return cfg, countries
}

func TestEngineDayOneIsolation(t *testing.T) {
	cfg, countries := testWorld(t, 30)
	cfg.Days = 1

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 99)
	if err := engine.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Day 1 is no-travel everywhere: rosters keep their size and
	// counters stay at zero.
	for _, c := range countries {
		if got := c.Population(); got != 30 {
			t.Errorf("%s roster size: got %d, want 30", c.Name, got)
		}
		if c.TravellersInToday != 0 || c.TravellersOutToday != 0 {
			t.Errorf("%s travel counters: in=%d out=%d", c.Name, c.TravellersInToday, c.TravellersOutToday)
		}
	}

	// The epidemic stays inside the seed country.
	for _, name := range []string{"France", "Spain"} {
		h, i, r, d := engine.CountsByNationality(name)
		if i != 0 || r != 0 || d != 0 {
			t.Errorf("%s was touched by the epidemic on day 1: h=%d i=%d r=%d d=%d", name, h, i, r, d)
		}
	}
}

func TestEngineZeroSeedBoundary(t *testing.T) {
	cfg, countries := testWorld(t, 30)
	cfg.Days = 2
	cfg.InitialInfectedFrac = 0

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 99)
	if err := engine.Run(); err != nil {
		t.Fatalf("zero seeded infections must not fail the run: %v", err)
	}

	for _, c := range countries {
		h, i, r, d := engine.CountsByNationality(c.Name)
		if i != 0 || r != 0 || d != 0 {
			t.Errorf("%s: epidemic without seeds: h=%d i=%d r=%d d=%d", c.Name, h, i, r, d)
		}
	}
}

func TestEngineMissingSeedCountry(t *testing.T) {
	cfg, countries := testWorld(t, 10)
	cfg.SeedCountry = "Atlantis"

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 99)
	if err := engine.Run(); err == nil {
		t.Fatal("expected a configuration error for the missing seed country")
	}
}

func TestEngineConservationAcrossDays(t *testing.T) {
	cfg, countries := testWorld(t, 40)
	cfg.Days = 8
	cfg.BaseTravelProb = 0.5 // force heavy migration

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 7)
	if err := engine.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	total := 0
	for _, c := range countries {
		total += c.Population()
		if c.CurrentHospitalized > c.HospitalCapacity {
			t.Errorf("%s: occupancy over capacity", c.Name)
		}
		if c.BudgetRemaining < 0 {
			t.Errorf("%s: negative budget %v", c.Name, c.BudgetRemaining)
		}
	}
	if total != 120 {
		t.Errorf("population not conserved: got %d, want 120", total)
	}
	if engine.Faults() != 0 {
		t.Errorf("unexpected processing faults: %d", engine.Faults())
	}
}

func TestEngineSeedsConfiguredFraction(t *testing.T) {
	cfg, countries := testWorld(t, 50)
	cfg.Days = 1
	cfg.InitialInfectedFrac = 0.10

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 3)
	defer engine.pool.Close()
	if err := engine.seedVirus(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	infected := 0
	for _, c := range countries {
		if c.Name != "Italy" {
			continue
		}
		for _, p := range c.Patients {
			if p.State == Infected {
				infected++
				if p.InfectiousPeriod == 0 {
					t.Error("seeded patient has no infectious period")
				}
			}
		}
	}
	if infected != 5 {
		t.Errorf("expected 5 seeded infections, got %d", infected)
	}
}

func TestEngineRepeatableAfterReset(t *testing.T) {
	cfg, countries := testWorld(t, 20)
	cfg.Days = 3

	engine := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 5)
	if err := engine.Run(); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A fresh engine over the same world reseeds from a clean state.
	engine2 := NewEngine(cfg, countries, NopRecorder{}, NopReporter{}, 5)
	defer engine2.pool.Close()
	if err := engine2.seedVirus(); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	for _, c := range countries {
		for _, p := range c.Patients {
			if p.State == Recovered || p.State == Dead {
				t.Fatalf("reset left patient in %v", p.State)
			}
			if p.Hospitalized {
				t.Fatal("reset left patient hospitalized")
			}
		}
	}
}
