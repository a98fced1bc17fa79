package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")
	data := `
days: 12
seed_country: France
base_travel_prob: 0.2
budgets:
  France: 2000
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Days != 12 {
		t.Errorf("days: got %d, want 12", p.Days)
	}
	if p.SeedCountry != "France" {
		t.Errorf("seed country: got %q", p.SeedCountry)
	}
	if p.BaseTravelProb != 0.2 {
		t.Errorf("base travel prob: got %v", p.BaseTravelProb)
	}
	if p.Budget("France") != 2000 {
		t.Errorf("France budget: got %v", p.Budget("France"))
	}
	// Untouched defaults survive the overlay.
	if p.PopulationPerCountry != 500 {
		t.Errorf("population default lost: got %d", p.PopulationPerCountry)
	}
	if len(p.Countries) != 7 {
		t.Errorf("country roster lost: got %d entries", len(p.Countries))
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("OUTBREAK_DAYS", "5")
	t.Setenv("OUTBREAK_SEED_COUNTRY", "Spain")

	p, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Days != 5 {
		t.Errorf("env days: got %d, want 5", p.Days)
	}
	if p.SeedCountry != "Spain" {
		t.Errorf("env seed country: got %q", p.SeedCountry)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero days", func(p *Params) { p.Days = 0 }},
		{"zero population", func(p *Params) { p.PopulationPerCountry = 0 }},
		{"inverted contacts", func(p *Params) { p.ContactsMin, p.ContactsMax = 6, 2 }},
		{"inverted infectious period", func(p *Params) { p.InfectiousPeriodMin, p.InfectiousPeriodMax = 9, 4 }},
		{"zero workers", func(p *Params) { p.Workers = 0 }},
		{"empty roster", func(p *Params) { p.Countries = nil }},
		{"unknown vaccine", func(p *Params) { p.Countries[0].Vaccines = []string{"Z"} }},
		{"unknown treatment", func(p *Params) { p.Countries[0].Treatments = []string{"Z"} }},
		{"empty vaccine catalog", func(p *Params) { p.Countries[0].Vaccines = nil }},
		{"missing seed country", func(p *Params) { p.SeedCountry = "Atlantis" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Default()
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestBudgetFallback(t *testing.T) {
	p := Default()
	if got := p.Budget("Germany"); got != 1500 {
		t.Errorf("explicit budget: got %v", got)
	}
	if got := p.Budget("Portugal"); got != p.DefaultBudget {
		t.Errorf("fallback budget: got %v, want %v", got, p.DefaultBudget)
	}
}

func TestIntervalContains(t *testing.T) {
	iv := Interval{Start: 5, End: 15}
	for day, want := range map[int]bool{4: false, 5: true, 10: true, 15: true, 16: false} {
		if got := iv.Contains(day); got != want {
			t.Errorf("Contains(%d) = %v, want %v", day, got, want)
		}
	}
}
