// Package territory implements the preseason baseline assignment and the
// ownership-map helpers shared by the engine and the aggregators.
package territory

import (
	"fmt"
	"math"
	"sort"

	"imperialmap/internal/refdata"
)

const earthRadiusKM = 6371

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lon1r := lon1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	lon2r := lon2 * math.Pi / 180

	dlat := lat2r - lat1r
	dlon := lon2r - lon1r

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}

// Campus is a team id with fixed home coordinates.
type Campus struct {
	TeamID    string
	Latitude  float64
	Longitude float64
}

// CampusesFromTeams extracts campuses from team reference data, sorted by
// team id so assignment is reproducible when two campuses are equidistant.
func CampusesFromTeams(teams []refdata.Team) []Campus {
	out := make([]Campus, 0, len(teams))
	for _, t := range teams {
		out = append(out, Campus{TeamID: t.ID, Latitude: t.Latitude, Longitude: t.Longitude})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

// AssignBaseline maps every county to the team whose campus is nearest to
// its centroid. Equidistant campuses resolve to the lexicographically
// smallest team id via the sorted campus order.
func AssignBaseline(counties map[string]refdata.County, campuses []Campus) (map[string]string, error) {
	if len(campuses) == 0 {
		return nil, fmt.Errorf("no campuses to assign from")
	}

	ownership := make(map[string]string, len(counties))
	for fips, county := range counties {
		best := ""
		shortest := math.Inf(1)
		for _, campus := range campuses {
			d := Haversine(county.Latitude, county.Longitude, campus.Latitude, campus.Longitude)
			if d < shortest {
				shortest = d
				best = campus.TeamID
			}
		}
		ownership[fips] = best
	}
	return ownership, nil
}

// BuildTeamIndex inverts an ownership map into team id -> owned FIPS set.
func BuildTeamIndex(ownership map[string]string) map[string]map[string]bool {
	index := make(map[string]map[string]bool)
	for fips, teamID := range ownership {
		set, ok := index[teamID]
		if !ok {
			set = make(map[string]bool)
			index[teamID] = set
		}
		set[fips] = true
	}
	return index
}

// SortedFIPS returns the keys of a FIPS set in ascending order.
func SortedFIPS(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for fips := range set {
		out = append(out, fips)
	}
	sort.Strings(out)
	return out
}

// CloneOwnership copies an ownership map so a new snapshot can be derived
// without mutating the committed one.
func CloneOwnership(ownership map[string]string) map[string]string {
	out := make(map[string]string, len(ownership))
	for fips, teamID := range ownership {
		out[fips] = teamID
	}
	return out
}
