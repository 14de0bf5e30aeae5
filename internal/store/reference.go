package store

import "imperialmap/internal/refdata"

// WriteTeams persists generated team reference data. Normally teams.json is
// curated by hand; setup writes it only when building from a campus CSV.
func (s *Store) WriteTeams(teams []refdata.Team) error {
	return s.writeJSON("teams.json", teams)
}
