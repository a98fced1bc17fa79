package store

import "os"

// Summary holds whole-run statistics for a recorded database.
type Summary struct {
	DBPath      string           `json:"db_path"`
	DBSizeBytes int64            `json:"db_size_bytes"`
	Countries   int              `json:"countries"`
	Patients    int              `json:"patients"`
	Days        int              `json:"days"`
	FinalStates map[string]int   `json:"final_states"`
	PerCountry  []CountrySummary `json:"per_country"`
}

// CountrySummary is one country's final-day aggregate.
type CountrySummary struct {
	Name      string `json:"name"`
	Healthy   int    `json:"healthy"`
	Infected  int    `json:"infected"`
	Recovered int    `json:"recovered"`
	Dead      int    `json:"dead"`
}

// Route is one finalized migration route.
type Route struct {
	Origin    string  `json:"origin"`
	Dest      string  `json:"dest"`
	Intensity float64 `json:"intensity"`
}

// Summarize reads run statistics back out of the database.
func (s *Store) Summarize(dbPath string) (*Summary, error) {
	sum := &Summary{DBPath: dbPath, FinalStates: make(map[string]int)}

	if info, err := os.Stat(dbPath); err == nil {
		sum.DBSizeBytes = info.Size()
	}

	s.db.QueryRow(`SELECT COUNT(*) FROM country`).Scan(&sum.Countries)
	s.db.QueryRow(`SELECT COUNT(*) FROM patient`).Scan(&sum.Patients)
	s.db.QueryRow(`SELECT COALESCE(MAX(day), 0) FROM metrics_per_country_day`).Scan(&sum.Days)

	rows, err := s.db.Query(`
		SELECT final_state, COUNT(*)
		FROM patient_result
		GROUP BY final_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		sum.FinalStates[state] = n
	}

	crows, err := s.db.Query(`
		SELECT c.name, m.healthy, m.infected, m.recovered, m.dead
		FROM metrics_per_country_day m
		JOIN country c ON c.country_id = m.country_id
		WHERE m.day = (SELECT MAX(day) FROM metrics_per_country_day)
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var cs CountrySummary
		if err := crows.Scan(&cs.Name, &cs.Healthy, &cs.Infected, &cs.Recovered, &cs.Dead); err != nil {
			return nil, err
		}
		sum.PerCountry = append(sum.PerCountry, cs)
	}

	return sum, nil
}

// Routes returns the finalized migration intensities, busiest first.
func (s *Store) Routes() ([]Route, error) {
	rows, err := s.db.Query(`
		SELECT o.name, d.name, r.intensity
		FROM migration_route r
		JOIN country o ON o.country_id = r.origin_country_id
		JOIN country d ON d.country_id = r.dest_country_id
		ORDER BY r.intensity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.Origin, &r.Dest, &r.Intensity); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}
