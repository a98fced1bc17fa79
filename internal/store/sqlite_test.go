package store

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/rcalvo/outbreaksim/internal/config"
	"github.com/rcalvo/outbreaksim/internal/sim"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRegisterCountryIdempotent(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.RegisterCountry("Italy", 500, "C", "T1", 0.8)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id1 == "" {
		t.Fatal("expected non-empty country id")
	}

	id2, err := s.RegisterCountry("Italy", 600, "C", "T1", 0.8)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if id2 != id1 {
		t.Errorf("country id not stable: %s vs %s", id1, id2)
	}

	var pop int
	s.db.QueryRow(`SELECT population FROM country WHERE country_id = ?`, id1).Scan(&pop)
	if pop != 600 {
		t.Errorf("upsert did not refresh population: got %d", pop)
	}
}

func TestCatalogUpserts(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertVaccine("A", 0.9, 3); err != nil {
		t.Fatalf("upsert vaccine: %v", err)
	}
	if err := s.UpsertVaccine("A", 0.8, 4); err != nil {
		t.Fatalf("upsert vaccine again: %v", err)
	}

	var eff, cost float64
	s.db.QueryRow(`SELECT efficacy, unit_cost FROM vaccine WHERE brand = 'A'`).Scan(&eff, &cost)
	if eff != 0.8 || cost != 4 {
		t.Errorf("vaccine not refreshed: eff=%v cost=%v", eff, cost)
	}

	if err := s.UpsertTreatment("T1", 0.75, 1); err != nil {
		t.Fatalf("upsert treatment: %v", err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM treatment`).Scan(&n)
	if n != 1 {
		t.Errorf("expected 1 treatment, got %d", n)
	}
}

func TestPatientStatesFlush(t *testing.T) {
	s := newTestStore(t)

	cid, _ := s.RegisterCountry("Italy", 1, "C", "T1", 0.8)
	pid, err := s.RegisterPatient(cid, &sim.Patient{Sex: "F", Age: 70, RespiratoryDisease: true})
	if err != nil {
		t.Fatalf("register patient: %v", err)
	}

	s.RecordPatientState(pid, 1, sim.Healthy)
	s.RecordPatientState(pid, 2, sim.Infected)
	s.RecordPatientState(pid, 3, sim.Recovered)
	if err := s.FlushDailyStates(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM patient_state_per_day WHERE patient_id = ?`, pid).Scan(&n)
	if n != 3 {
		t.Errorf("expected 3 state rows, got %d", n)
	}

	// A second flush with an empty buffer is a no-op.
	if err := s.FlushDailyStates(); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
}

func TestFinalizePatients(t *testing.T) {
	s := newTestStore(t)

	cid, _ := s.RegisterCountry("Italy", 1, "C", "T1", 0.8)
	p := &sim.Patient{Sex: "M", Age: 40}
	pid, _ := s.RegisterPatient(cid, p)
	p.ID = pid
	p.State = sim.Recovered

	s.RecordPatientState(pid, 1, sim.Healthy)
	s.RecordPatientState(pid, 2, sim.Infected)
	s.RecordPatientState(pid, 3, sim.Infected)
	s.RecordPatientState(pid, 4, sim.Recovered)

	if err := s.FinalizePatients([]*sim.Patient{p}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	var firstInfected, recoveredDay int
	var deathDay any
	var finalState string
	err := s.db.QueryRow(`
		SELECT first_infected_day, recovered_day, death_day, final_state
		FROM patient_result WHERE patient_id = ?`, pid).
		Scan(&firstInfected, &recoveredDay, &deathDay, &finalState)
	if err != nil {
		t.Fatalf("query result: %v", err)
	}
	if firstInfected != 2 || recoveredDay != 4 {
		t.Errorf("event days: infected=%d recovered=%d", firstInfected, recoveredDay)
	}
	if deathDay != nil {
		t.Errorf("expected NULL death day, got %v", deathDay)
	}
	if finalState != "recovered" {
		t.Errorf("final state: got %q", finalState)
	}
}

func TestMigrationIntensity(t *testing.T) {
	s := newTestStore(t)

	origin, _ := s.RegisterCountry("Italy", 100, "C", "T1", 0.8)
	dest, _ := s.RegisterCountry("France", 100, "A", "T2", 0.6)

	s.RecordTravel(origin, dest)
	s.RecordTravel(origin, dest)

	if err := s.FinalizeMigrationRoutes(map[string]int{origin: 100, dest: 100}); err != nil {
		t.Fatalf("finalize routes: %v", err)
	}

	routes, err := s.Routes()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	r := routes[0]
	if r.Origin != "Italy" || r.Dest != "France" {
		t.Errorf("route endpoints: %+v", r)
	}
	if math.Abs(r.Intensity-0.02) > 1e-9 {
		t.Errorf("intensity: got %v, want 0.02", r.Intensity)
	}
}

func TestMetricsUpsert(t *testing.T) {
	s := newTestStore(t)
	cid, _ := s.RegisterCountry("Spain", 10, "B", "T2", 0.7)

	if err := s.RecordMetrics(cid, 1, 10, 0, 0, 0); err != nil {
		t.Fatalf("record metrics: %v", err)
	}
	if err := s.RecordMetrics(cid, 1, 8, 2, 0, 0); err != nil {
		t.Fatalf("record metrics again: %v", err)
	}

	var n, infected int
	s.db.QueryRow(`SELECT COUNT(*), MAX(infected) FROM metrics_per_country_day WHERE country_id = ?`, cid).Scan(&n, &infected)
	if n != 1 || infected != 2 {
		t.Errorf("expected single upserted row with infected=2, got n=%d infected=%d", n, infected)
	}
}

func TestBudgetGeneratedColumns(t *testing.T) {
	s := newTestStore(t)
	cid, _ := s.RegisterCountry("Germany", 10, "A", "T1", 0.9)

	if err := s.RecordBudget(cid, 100, 50, 3, 1); err != nil {
		t.Fatalf("record budget: %v", err)
	}

	var total float64
	s.db.QueryRow(`SELECT total_spend FROM budget WHERE country_id = ?`, cid).Scan(&total)
	if total != 350 {
		t.Errorf("total spend: got %v, want 350", total)
	}
}

func TestVaccineUsageAndLockdowns(t *testing.T) {
	s := newTestStore(t)
	cid, _ := s.RegisterCountry("Belgium", 10, "B", "T2", 0.8)

	err := s.RecordVaccineUsage(cid, map[string]int{"B": 5, "C": 0})
	if err != nil {
		t.Fatalf("record usage: %v", err)
	}
	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM vaccine_usage WHERE country_id = ?`, cid).Scan(&n)
	if n != 1 {
		t.Errorf("zero-unit brands must be skipped, got %d rows", n)
	}

	err = s.RecordLockdowns(cid, []config.Interval{{Start: 1, End: 10}, {Start: 20, End: 25}})
	if err != nil {
		t.Fatalf("record lockdowns: %v", err)
	}
	s.db.QueryRow(`SELECT COUNT(*) FROM lockdown WHERE country_id = ?`, cid).Scan(&n)
	if n != 2 {
		t.Errorf("expected 2 lockdown rows, got %d", n)
	}
}

func TestSummarize(t *testing.T) {
	s := newTestStore(t)

	cid, _ := s.RegisterCountry("Italy", 2, "C", "T1", 0.8)
	p1 := &sim.Patient{Sex: "F", Age: 30}
	p2 := &sim.Patient{Sex: "M", Age: 70}
	id1, _ := s.RegisterPatient(cid, p1)
	id2, _ := s.RegisterPatient(cid, p2)
	p1.ID, p2.ID = id1, id2
	p1.State = sim.Healthy
	p2.State = sim.Dead

	s.RecordMetrics(cid, 1, 2, 0, 0, 0)
	s.RecordMetrics(cid, 2, 1, 0, 0, 1)
	s.FinalizePatients([]*sim.Patient{p1, p2})

	sum, err := s.Summarize("unused-path")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Countries != 1 || sum.Patients != 2 || sum.Days != 2 {
		t.Errorf("summary counts: %+v", sum)
	}
	if sum.FinalStates["dead"] != 1 || sum.FinalStates["healthy"] != 1 {
		t.Errorf("final states: %v", sum.FinalStates)
	}
	if len(sum.PerCountry) != 1 || sum.PerCountry[0].Dead != 1 {
		t.Errorf("per-country summary: %+v", sum.PerCountry)
	}
}
