// Package refdata loads the immutable team and county reference data used by
// every subcommand. Both sets are read once at the start of a run.
package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Team is the closed record for one FBS program.
type Team struct {
	ID         string  `json:"id"`
	School     string  `json:"school"`
	Name       string  `json:"name"`
	ShortName  string  `json:"shortName,omitempty"`
	FullName   string  `json:"fullName,omitempty"`
	Conference string  `json:"conference,omitempty"`
	Color      string  `json:"color,omitempty"`
	AltColor   string  `json:"altColor,omitempty"`
	LogoURL    string  `json:"logoUrl,omitempty"`
	Latitude   float64 `json:"lat"`
	Longitude  float64 `json:"lon"`
}

// DisplayName picks the best available label for a team.
func (t Team) DisplayName() string {
	switch {
	case t.ShortName != "":
		return t.ShortName
	case t.School != "":
		return t.School
	case t.Name != "":
		return t.Name
	default:
		return t.ID
	}
}

// County is the closed record for one geographic unit, keyed by FIPS code.
type County struct {
	FIPS       string  `json:"fips"`
	Name       string  `json:"name"`
	State      string  `json:"state"`
	Population int64   `json:"population"`
	AreaSqMi   float64 `json:"areaSqMi"`
	Latitude   float64 `json:"centroidLat"`
	Longitude  float64 `json:"centroidLon"`
}

// LoadTeams reads teams.json from the data dir and indexes it by team id.
func LoadTeams(dataDir string) ([]Team, map[string]Team, error) {
	path := filepath.Join(dataDir, "teams.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read teams: %w", err)
	}

	var teams []Team
	if err := json.Unmarshal(raw, &teams); err != nil {
		return nil, nil, fmt.Errorf("decode teams: %w", err)
	}

	byID := make(map[string]Team, len(teams))
	for _, t := range teams {
		if t.ID == "" {
			return nil, nil, fmt.Errorf("team %q has no id", t.School)
		}
		if _, dup := byID[t.ID]; dup {
			return nil, nil, fmt.Errorf("duplicate team id %q", t.ID)
		}
		byID[t.ID] = t
	}
	return teams, byID, nil
}

// LoadCounties reads county-stats.json (fips -> county) from the data dir.
func LoadCounties(dataDir string) (map[string]County, error) {
	path := filepath.Join(dataDir, "county-stats.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read county stats: %w", err)
	}

	var counties map[string]County
	if err := json.Unmarshal(raw, &counties); err != nil {
		return nil, fmt.Errorf("decode county stats: %w", err)
	}

	// The key is authoritative; backfill the struct field for callers that
	// range over values.
	for fips, c := range counties {
		if c.FIPS == "" {
			c.FIPS = fips
			counties[fips] = c
		}
	}
	return counties, nil
}
