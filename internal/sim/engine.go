package sim

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/rcalvo/outbreaksim/internal/config"
)

// Engine orchestrates the day loop: counter resets, vaccination
// campaigns, policy selection, batched parallel patient processing
// with an end-of-day barrier, and forwarding to the persistence sink.
type Engine struct {
	cfg       *config.Params
	countries []*Country
	all       []*Patient

	pool    *Pool
	bus     *Bus
	tracker *PolicyTracker
	router  *Router
	rec     Recorder
	rep     Reporter

	seed     int64
	taskSeq  atomic.Int64
	faults   atomic.Uint64
	policies map[string]TravelPolicy
}

// NewEngine wires the engine over an already-built world. rec and rep
// must be non-nil (use NopRecorder / NopReporter).
func NewEngine(cfg config.Params, countries []*Country, rec Recorder, rep Reporter, seed int64) *Engine {
	e := &Engine{
		cfg:       &cfg,
		countries: countries,
		pool:      NewPool(cfg.Workers),
		bus:       NewBus(),
		router:    NewRouter(countries, rec),
		rec:       rec,
		rep:       rep,
		seed:      seed,
		policies:  make(map[string]TravelPolicy, len(countries)),
	}
	for _, c := range countries {
		e.all = append(e.all, c.Patients...)
	}
	e.tracker = NewPolicyTracker(rep.PolicyChange)
	e.bus.Subscribe(e.tracker.Handle)
	return e
}

// Faults returns the number of per-patient processing faults caught
// so far.
func (e *Engine) Faults() uint64 {
	return e.faults.Load()
}

// Run executes the full simulation and shuts the worker pool down.
func (e *Engine) Run() error {
	defer e.pool.Close()

	if err := e.seedVirus(); err != nil {
		return err
	}

	for day := 1; day <= e.cfg.Days; day++ {
		if err := e.runDay(day); err != nil {
			return fmt.Errorf("day %d: %w", day, err)
		}
	}

	if err := e.rec.FinalizePatients(e.all); err != nil {
		return fmt.Errorf("finalize patients: %w", err)
	}
	populations := make(map[string]int, len(e.countries))
	for _, c := range e.countries {
		populations[c.ID] = c.Population()
	}
	if err := e.rec.FinalizeMigrationRoutes(populations); err != nil {
		return fmt.Errorf("finalize migration routes: %w", err)
	}

	e.rep.RunFinished(e.totals(), e.faults.Load())
	return nil
}

// seedVirus resets the world and infects the initial fraction of the
// seed country's roster.
func (e *Engine) seedVirus() error {
	for _, c := range e.countries {
		c.mu.Lock()
		for _, p := range c.Patients {
			p.Reset()
		}
		c.mu.Unlock()
	}

	var seedCountry *Country
	for _, c := range e.countries {
		if c.Name == e.cfg.SeedCountry {
			seedCountry = c
			break
		}
	}
	if seedCountry == nil {
		return fmt.Errorf("seed country %q not found in world", e.cfg.SeedCountry)
	}

	rng := rand.New(rand.NewSource(e.seed))

	seedCountry.mu.Lock()
	k := int(float64(len(seedCountry.Patients)) * e.cfg.InitialInfectedFrac)
	if k <= 0 {
		seedCountry.mu.Unlock()
		log.Printf("seed: initial infected fraction yields zero cases in %s", seedCountry.Name)
		e.rep.RunSeeded(seedCountry.Name, 0)
		return nil
	}
	for _, p := range samplePatients(rng, seedCountry.Patients, k) {
		p.State = Infected
		p.DaysInfected = 0
		p.InfectiousPeriod = drawInfectiousPeriod(rng, e.cfg)
		allocateTreatmentLocked(rng, e.cfg, seedCountry, p)
	}
	seedCountry.mu.Unlock()

	e.rep.RunSeeded(seedCountry.Name, k)
	return nil
}

func (e *Engine) runDay(day int) error {
	e.rep.DayStart(day, day == e.cfg.VariantDay)

	// 1: per-day counters, transmission rate, vaccination campaign.
	for _, c := range e.countries {
		c.ResetDayCounters()
		c.UpdateTransmission(day, e.cfg)
		RunVaccinationCampaign(e.cfg, c, day)
	}

	// 2: same-day infection-rate snapshot.
	rates := make(map[string]float64, len(e.countries))
	for _, c := range e.countries {
		rates[c.Name] = c.InfectionRate()
	}

	// 3: active policy per country, adaptive override for designated
	// countries after day 1.
	for _, c := range e.countries {
		var policy TravelPolicy
		if _, adaptive := e.cfg.Adaptive[c.Name]; adaptive && day > 1 {
			policy = AdaptivePolicy(e.cfg, c, day, rates[c.Name])
		} else {
			policy = ScheduledPolicy(e.cfg, c.Name, day)
		}
		c.SetPolicy(policy)
		e.policies[c.Name] = policy
		e.bus.Publish(PolicyChange{Country: c.Name, Day: day, Policy: policy.Name()})
	}

	// 4: batch the living patients and run them on the pool.
	var barrier sync.WaitGroup
	for _, c := range e.countries {
		alive := c.AlivePatients()
		policy := e.policies[c.Name]

		for i := 0; i < len(alive); i += e.cfg.BatchSize {
			batch := alive[i:min(i+e.cfg.BatchSize, len(alive))]
			taskSeed := e.seed + e.taskSeq.Add(1)*7919 + int64(day)
			country := c

			barrier.Add(1)
			e.pool.Submit(func() {
				defer barrier.Done()
				rng := rand.New(rand.NewSource(taskSeed))
				e.processBatch(rng, batch, country, policy, day)
			})
		}
	}

	// 5: end-of-day barrier.
	barrier.Wait()

	// 6: forward the day to the sink and the reporter.
	for _, c := range e.countries {
		c.mu.Lock()
		for _, p := range c.Patients {
			if p.ID != "" {
				e.rec.RecordPatientState(p.ID, day, p.State)
			}
		}
		c.mu.Unlock()
	}
	if err := e.rec.FlushDailyStates(); err != nil {
		return fmt.Errorf("flush daily states: %w", err)
	}

	stats := make([]CountryDayStats, 0, len(e.countries))
	for _, c := range e.countries {
		h, i, r, d := e.CountsByNationality(c.Name)
		c.mu.Lock()
		row := CountryDayStats{
			Name:       c.Name,
			In:         c.TravellersInToday,
			Out:        c.TravellersOutToday,
			Vaccinated: c.VaccinatedToday,
			Healthy:    h,
			Infected:   i,
			Recovered:  r,
			Dead:       d,
		}
		c.mu.Unlock()
		stats = append(stats, row)

		if c.ID != "" {
			if err := e.rec.RecordMetrics(c.ID, day, h, i, r, d); err != nil {
				return fmt.Errorf("record metrics for %s: %w", c.Name, err)
			}
		}
	}
	e.rep.DaySummary(day, stats)
	return nil
}

// processBatch advances each patient of one batch sequentially: a
// disease step, then a travel attempt while still alive.
func (e *Engine) processBatch(rng *rand.Rand, batch []*Patient, c *Country, policy TravelPolicy, day int) {
	for _, p := range batch {
		e.stepPatient(rng, p, c, policy, day)
	}
}

// stepPatient contains the fault boundary: a panic while processing
// one patient is logged and counted, and the rest of the batch
// proceeds.
func (e *Engine) stepPatient(rng *rand.Rand, p *Patient, c *Country, policy TravelPolicy, day int) {
	defer func() {
		if r := recover(); r != nil {
			e.faults.Add(1)
			log.Printf("patient fault: day %d country %s patient %s: %v", day, c.Name, p.ID, r)
		}
	}()

	InfectionStep(rng, e.cfg, p, c, day)

	if p.State != Dead && policy != nil {
		e.router.TryTravel(rng, p, policy, day)
	}
}

// CountsByNationality aggregates disease states over every patient of
// the given nationality, wherever they currently live. Only valid
// between days (after the barrier).
func (e *Engine) CountsByNationality(name string) (healthy, infected, recovered, dead int) {
	for _, p := range e.all {
		if p.Nationality != name {
			continue
		}
		switch p.State {
		case Healthy:
			healthy++
		case Infected:
			infected++
		case Recovered:
			recovered++
		case Dead:
			dead++
		}
	}
	return
}

func (e *Engine) totals() Totals {
	var t Totals
	for _, p := range e.all {
		switch p.State {
		case Healthy:
			t.Healthy++
		case Infected:
			t.Infected++
		case Recovered:
			t.Recovered++
		case Dead:
			t.Dead++
		}
	}
	return t
}
