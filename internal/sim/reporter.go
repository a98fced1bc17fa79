package sim

// CountryDayStats is one row of the per-day telemetry report.
type CountryDayStats struct {
	Name       string
	In         int
	Out        int
	Vaccinated int
	Healthy    int
	Infected   int
	Recovered  int
	Dead       int
}

// Totals are whole-run aggregate counts.
type Totals struct {
	Healthy   int
	Infected  int
	Recovered int
	Dead      int
}

// Reporter receives run telemetry. Implementations render it; the
// counts themselves come straight from engine state.
type Reporter interface {
	RunSeeded(country string, infected int)
	DayStart(day int, variantIntroduced bool)
	PolicyChange(ev PolicyChange, previous string, first bool)
	DaySummary(day int, stats []CountryDayStats)
	RunFinished(totals Totals, faults uint64)
}

// NopReporter drops all telemetry.
type NopReporter struct{}

func (NopReporter) RunSeeded(string, int)                  {}
func (NopReporter) DayStart(int, bool)                     {}
func (NopReporter) PolicyChange(PolicyChange, string, bool) {}
func (NopReporter) DaySummary(int, []CountryDayStats)      {}
func (NopReporter) RunFinished(Totals, uint64)             {}
