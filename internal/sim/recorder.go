package sim

import "github.com/rcalvo/outbreaksim/internal/config"

// Recorder is the persistence sink consumed by the engine and the
// world bootstrap. Registration methods return stable identifiers;
// per-trip and per-state recording is buffered by the implementation
// and flushed on demand.
type Recorder interface {
	TravelRecorder

	UpsertVaccine(brand string, efficacy, unitCost float64) error
	UpsertTreatment(brand string, efficacy, unitCost float64) error

	RegisterCountry(name string, population int, vaccineBrand, treatmentBrand string, maskProb float64) (string, error)
	RecordLockdowns(countryID string, intervals []config.Interval) error
	RecordBudget(countryID string, vaccineUnits, medicineUnits int, vaccineUnitCost, medicineUnitCost float64) error
	RecordVaccineUsage(countryID string, unitsByBrand map[string]int) error
	RegisterPatient(countryID string, p *Patient) (string, error)

	RecordPatientState(patientID string, day int, state State)
	FlushDailyStates() error
	RecordMetrics(countryID string, day, healthy, infected, recovered, dead int) error

	FinalizePatients(patients []*Patient) error
	FinalizeMigrationRoutes(populationByID map[string]int) error
}

// NopRecorder discards everything. Useful for dry runs and tests.
type NopRecorder struct{}

func (NopRecorder) RecordTravel(string, string) {}

func (NopRecorder) UpsertVaccine(string, float64, float64) error   { return nil }
func (NopRecorder) UpsertTreatment(string, float64, float64) error { return nil }

func (NopRecorder) RegisterCountry(string, int, string, string, float64) (string, error) {
	return "", nil
}
func (NopRecorder) RecordLockdowns(string, []config.Interval) error           { return nil }
func (NopRecorder) RecordBudget(string, int, int, float64, float64) error     { return nil }
func (NopRecorder) RecordVaccineUsage(string, map[string]int) error           { return nil }
func (NopRecorder) RegisterPatient(string, *Patient) (string, error)          { return "", nil }
func (NopRecorder) RecordPatientState(string, int, State)                     {}
func (NopRecorder) FlushDailyStates() error                                   { return nil }
func (NopRecorder) RecordMetrics(string, int, int, int, int, int) error       { return nil }
func (NopRecorder) FinalizePatients([]*Patient) error                         { return nil }
func (NopRecorder) FinalizeMigrationRoutes(map[string]int) error              { return nil }
