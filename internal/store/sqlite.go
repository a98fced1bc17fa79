// Package store persists simulation runs to SQLite: catalogs, the
// registered world, per-day patient states and country metrics, and
// the finalized outcome and migration-intensity aggregates.
package store

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcalvo/outbreaksim/internal/config"
	"github.com/rcalvo/outbreaksim/internal/sim"
)

type routeKey struct {
	origin string
	dest   string
}

type stateRow struct {
	patientID string
	day       int
	state     string
}

// Store implements sim.Recorder on SQLite.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand

	mu          sync.Mutex
	dailyStates []stateRow
	travel      map[routeKey]int

	firstInfected map[string]int
	recoveredDay  map[string]int
	deathDay      map[string]int
}

// New opens or creates a SQLite database at the given path.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:            db,
		entropy:       rand.New(rand.NewSource(time.Now().UnixNano())),
		travel:        make(map[routeKey]int),
		firstInfected: make(map[string]int),
		recoveredDay:  make(map[string]int),
		deathDay:      make(map[string]int),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS country (
		country_id      TEXT PRIMARY KEY,
		name            TEXT NOT NULL UNIQUE,
		population      INTEGER NOT NULL,
		vaccine_brand   TEXT NOT NULL,
		treatment_brand TEXT NOT NULL,
		mask_prob       REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patient (
		patient_id          TEXT PRIMARY KEY,
		country_id          TEXT NOT NULL REFERENCES country(country_id),
		sex                 TEXT NOT NULL,
		age                 INTEGER NOT NULL,
		respiratory_disease INTEGER NOT NULL,
		vaccinated          INTEGER NOT NULL,
		mask                INTEGER NOT NULL,
		superspreader       INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_patient_country ON patient(country_id);

	CREATE TABLE IF NOT EXISTS vaccine (
		brand     TEXT PRIMARY KEY,
		efficacy  REAL NOT NULL,
		unit_cost REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS treatment (
		brand     TEXT PRIMARY KEY,
		efficacy  REAL NOT NULL,
		unit_cost REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS budget (
		country_id           TEXT PRIMARY KEY REFERENCES country(country_id),
		vaccine_units        INTEGER NOT NULL,
		medicine_units       INTEGER NOT NULL,
		vaccine_unit_cost    REAL NOT NULL,
		medicine_unit_cost   REAL NOT NULL,
		total_vaccine_spend  REAL GENERATED ALWAYS AS (vaccine_units * vaccine_unit_cost) STORED,
		total_medicine_spend REAL GENERATED ALWAYS AS (medicine_units * medicine_unit_cost) STORED,
		total_spend          REAL GENERATED ALWAYS AS (total_vaccine_spend + total_medicine_spend) STORED
	);

	CREATE TABLE IF NOT EXISTS lockdown (
		lockdown_id INTEGER PRIMARY KEY AUTOINCREMENT,
		country_id  TEXT NOT NULL REFERENCES country(country_id),
		day_start   INTEGER NOT NULL,
		day_end     INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patient_state_per_day (
		patient_id TEXT NOT NULL REFERENCES patient(patient_id),
		day        INTEGER NOT NULL,
		state      TEXT NOT NULL CHECK (state IN ('healthy','infected','recovered','dead')),
		PRIMARY KEY (patient_id, day)
	);

	CREATE TABLE IF NOT EXISTS metrics_per_country_day (
		country_id TEXT NOT NULL REFERENCES country(country_id),
		day        INTEGER NOT NULL,
		healthy    INTEGER NOT NULL,
		infected   INTEGER NOT NULL,
		recovered  INTEGER NOT NULL,
		dead       INTEGER NOT NULL,
		PRIMARY KEY (country_id, day)
	);

	CREATE TABLE IF NOT EXISTS vaccine_usage (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		country_id TEXT NOT NULL REFERENCES country(country_id),
		brand      TEXT NOT NULL,
		units      INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS patient_result (
		patient_id         TEXT PRIMARY KEY REFERENCES patient(patient_id),
		first_infected_day INTEGER,
		recovered_day      INTEGER,
		death_day          INTEGER,
		final_state        TEXT NOT NULL CHECK (final_state IN ('healthy','infected','recovered','dead'))
	);

	CREATE TABLE IF NOT EXISTS migration_route (
		origin_country_id TEXT NOT NULL REFERENCES country(country_id),
		dest_country_id   TEXT NOT NULL REFERENCES country(country_id),
		intensity         REAL NOT NULL,
		PRIMARY KEY (origin_country_id, dest_country_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertVaccine registers or refreshes a vaccine brand.
func (s *Store) UpsertVaccine(brand string, efficacy, unitCost float64) error {
	_, err := s.db.Exec(`
		INSERT INTO vaccine (brand, efficacy, unit_cost)
		VALUES (?, ?, ?)
		ON CONFLICT(brand) DO UPDATE SET
			efficacy=excluded.efficacy,
			unit_cost=excluded.unit_cost`,
		brand, efficacy, unitCost)
	if err != nil {
		return fmt.Errorf("upsert vaccine %s: %w", brand, err)
	}
	return nil
}

// UpsertTreatment registers or refreshes a treatment brand.
func (s *Store) UpsertTreatment(brand string, efficacy, unitCost float64) error {
	_, err := s.db.Exec(`
		INSERT INTO treatment (brand, efficacy, unit_cost)
		VALUES (?, ?, ?)
		ON CONFLICT(brand) DO UPDATE SET
			efficacy=excluded.efficacy,
			unit_cost=excluded.unit_cost`,
		brand, efficacy, unitCost)
	if err != nil {
		return fmt.Errorf("upsert treatment %s: %w", brand, err)
	}
	return nil
}

// RegisterCountry upserts a country by name and returns its stable
// identifier.
func (s *Store) RegisterCountry(name string, population int, vaccineBrand, treatmentBrand string, maskProb float64) (string, error) {
	id := s.newID()
	_, err := s.db.Exec(`
		INSERT INTO country (country_id, name, population, vaccine_brand, treatment_brand, mask_prob)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			population      = excluded.population,
			vaccine_brand   = excluded.vaccine_brand,
			treatment_brand = excluded.treatment_brand,
			mask_prob       = excluded.mask_prob`,
		id, name, population, vaccineBrand, treatmentBrand, maskProb)
	if err != nil {
		return "", fmt.Errorf("register country %s: %w", name, err)
	}

	var got string
	if err := s.db.QueryRow(`SELECT country_id FROM country WHERE name = ?`, name).Scan(&got); err != nil {
		return "", fmt.Errorf("lookup country %s: %w", name, err)
	}
	return got, nil
}

// RecordLockdowns stores a country's lockdown calendar.
func (s *Store) RecordLockdowns(countryID string, intervals []config.Interval) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM lockdown WHERE country_id = ?`, countryID); err != nil {
		return fmt.Errorf("clear lockdowns: %w", err)
	}
	for _, iv := range intervals {
		if _, err := tx.Exec(`
			INSERT INTO lockdown (country_id, day_start, day_end)
			VALUES (?, ?, ?)`, countryID, iv.Start, iv.End); err != nil {
			return fmt.Errorf("insert lockdown: %w", err)
		}
	}
	return tx.Commit()
}

// RecordBudget stores unit counts and costs for a country.
func (s *Store) RecordBudget(countryID string, vaccineUnits, medicineUnits int, vaccineUnitCost, medicineUnitCost float64) error {
	_, err := s.db.Exec(`
		INSERT INTO budget (country_id, vaccine_units, medicine_units, vaccine_unit_cost, medicine_unit_cost)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(country_id) DO UPDATE SET
			vaccine_units      = excluded.vaccine_units,
			medicine_units     = excluded.medicine_units,
			vaccine_unit_cost  = excluded.vaccine_unit_cost,
			medicine_unit_cost = excluded.medicine_unit_cost`,
		countryID, vaccineUnits, medicineUnits, vaccineUnitCost, medicineUnitCost)
	if err != nil {
		return fmt.Errorf("record budget: %w", err)
	}
	return nil
}

// RecordVaccineUsage stores cumulative per-brand dose counts.
func (s *Store) RecordVaccineUsage(countryID string, unitsByBrand map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM vaccine_usage WHERE country_id = ?`, countryID); err != nil {
		return fmt.Errorf("clear vaccine usage: %w", err)
	}
	for brand, units := range unitsByBrand {
		if units <= 0 {
			continue
		}
		if _, err := tx.Exec(`
			INSERT INTO vaccine_usage (country_id, brand, units)
			VALUES (?, ?, ?)`, countryID, brand, units); err != nil {
			return fmt.Errorf("insert vaccine usage: %w", err)
		}
	}
	return tx.Commit()
}

// RegisterPatient inserts a patient's fixed attributes and returns
// the stable identifier.
func (s *Store) RegisterPatient(countryID string, p *sim.Patient) (string, error) {
	id := s.newID()
	_, err := s.db.Exec(`
		INSERT INTO patient (patient_id, country_id, sex, age, respiratory_disease, vaccinated, mask, superspreader)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, countryID, p.Sex, p.Age,
		boolInt(p.RespiratoryDisease), boolInt(p.Vaccinated), boolInt(p.Mask), boolInt(p.Superspreader))
	if err != nil {
		return "", fmt.Errorf("register patient: %w", err)
	}
	return id, nil
}

// RecordPatientState buffers one per-day state row. Writing row by
// row was too slow; FlushDailyStates writes the batch in one
// transaction.
func (s *Store) RecordPatientState(patientID string, day int, state sim.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dailyStates = append(s.dailyStates, stateRow{patientID, day, state.String()})

	switch state {
	case sim.Infected:
		if _, ok := s.firstInfected[patientID]; !ok {
			s.firstInfected[patientID] = day
		}
	case sim.Recovered:
		if _, ok := s.recoveredDay[patientID]; !ok {
			s.recoveredDay[patientID] = day
		}
	case sim.Dead:
		if _, ok := s.deathDay[patientID]; !ok {
			s.deathDay[patientID] = day
		}
	}
}

// FlushDailyStates writes all buffered state rows.
func (s *Store) FlushDailyStates() error {
	s.mu.Lock()
	rows := s.dailyStates
	s.dailyStates = nil
	s.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO patient_state_per_day (patient_id, day, state)
		VALUES (?, ?, ?)
		ON CONFLICT(patient_id, day) DO UPDATE SET state=excluded.state`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.patientID, r.day, r.state); err != nil {
			return fmt.Errorf("insert patient state: %w", err)
		}
	}
	return tx.Commit()
}

// RecordMetrics upserts one country's aggregate counts for a day.
func (s *Store) RecordMetrics(countryID string, day, healthy, infected, recovered, dead int) error {
	_, err := s.db.Exec(`
		INSERT INTO metrics_per_country_day (country_id, day, healthy, infected, recovered, dead)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(country_id, day) DO UPDATE SET
			healthy=excluded.healthy,
			infected=excluded.infected,
			recovered=excluded.recovered,
			dead=excluded.dead`,
		countryID, day, healthy, infected, recovered, dead)
	if err != nil {
		return fmt.Errorf("record metrics: %w", err)
	}
	return nil
}

// RecordTravel counts one trip in memory. Safe for concurrent use by
// the worker pool; FinalizeMigrationRoutes persists the aggregate.
func (s *Store) RecordTravel(originID, destID string) {
	s.mu.Lock()
	s.travel[routeKey{originID, destID}]++
	s.mu.Unlock()
}

// FinalizeMigrationRoutes converts trip counts into intensity
// (count / origin population) and stores the routes.
func (s *Store) FinalizeMigrationRoutes(populationByID map[string]int) error {
	s.mu.Lock()
	travel := make(map[routeKey]int, len(s.travel))
	for k, v := range s.travel {
		travel[k] = v
	}
	s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for k, count := range travel {
		pop := populationByID[k.origin]
		if pop <= 0 {
			pop = 1
		}
		intensity := float64(count) / float64(pop)
		if _, err := tx.Exec(`
			INSERT INTO migration_route (origin_country_id, dest_country_id, intensity)
			VALUES (?, ?, ?)
			ON CONFLICT(origin_country_id, dest_country_id) DO UPDATE SET
				intensity=excluded.intensity`,
			k.origin, k.dest, intensity); err != nil {
			return fmt.Errorf("insert migration route: %w", err)
		}
	}
	return tx.Commit()
}

// FinalizePatients writes one outcome row per patient with the event
// days tracked during the run.
func (s *Store) FinalizePatients(patients []*sim.Patient) error {
	s.mu.Lock()
	firstInfected := s.firstInfected
	recoveredDay := s.recoveredDay
	deathDay := s.deathDay
	s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO patient_result (patient_id, first_infected_day, recovered_day, death_day, final_state)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			first_infected_day=excluded.first_infected_day,
			recovered_day=excluded.recovered_day,
			death_day=excluded.death_day,
			final_state=excluded.final_state`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range patients {
		if p.ID == "" {
			continue
		}
		if _, err := stmt.Exec(p.ID,
			nullableDay(firstInfected, p.ID),
			nullableDay(recoveredDay, p.ID),
			nullableDay(deathDay, p.ID),
			p.State.String()); err != nil {
			return fmt.Errorf("insert patient result: %w", err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableDay(m map[string]int, id string) any {
	if d, ok := m[id]; ok {
		return d
	}
	return nil
}
