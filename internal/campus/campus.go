// Package campus computes the logo-takeover view: for each team's fixed home
// campus, which team currently controls the majority of that campus's
// baseline counties.
package campus

import (
	"sort"
	"time"

	"imperialmap/internal/refdata"
)

// LogoEntry is one campus marker for a week. Coordinates are the campus's
// fixed location; only the owner (and therefore the logo) changes.
type LogoEntry struct {
	CampusTeamID     string  `json:"campusTeamId"`
	CampusTeamName   string  `json:"campusTeamName"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	CurrentOwnerID   string  `json:"currentOwnerId"`
	CurrentOwnerName string  `json:"currentOwnerName"`
	LogoURL          string  `json:"logoUrl,omitempty"`
	CountiesOwned    int     `json:"countiesOwned"`
	TotalCounties    int     `json:"totalCounties"`
}

// Payload is the per-week logo artifact.
type Payload struct {
	Season      int         `json:"season"`
	WeekIndex   int         `json:"weekIndex"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Logos       []LogoEntry `json:"logos"`
}

// BaselineIndex maps team id -> that team's baseline counties in sorted
// order. Built once per run; the baseline never changes mid-season.
func BaselineIndex(baseline map[string]string) map[string][]string {
	index := make(map[string][]string)
	for fips, teamID := range baseline {
		index[teamID] = append(index[teamID], fips)
	}
	for teamID := range index {
		sort.Strings(index[teamID])
	}
	return index
}

// MajorityOwner counts current owners over a campus's baseline counties and
// returns the plurality holder with its count. Ties resolve to the
// lexicographically smallest team id so repeat runs always agree.
func MajorityOwner(baselineCounties []string, current map[string]string) (string, int) {
	counts := make(map[string]int)
	for _, fips := range baselineCounties {
		if owner, ok := current[fips]; ok && owner != "" {
			counts[owner]++
		}
	}

	best := ""
	bestCount := 0
	for owner, count := range counts {
		if count > bestCount || (count == bestCount && (best == "" || owner < best)) {
			best = owner
			bestCount = count
		}
	}
	return best, bestCount
}

// Compute derives the logo entries for one week. Every team in the reference
// data gets an entry; a team with no baseline counties defaults to owning
// its own campus rather than being dropped.
func Compute(
	season, weekIndex int,
	baselineIdx map[string][]string,
	current map[string]string,
	teams []refdata.Team,
	byID map[string]refdata.Team,
	now time.Time,
) Payload {
	entries := make([]LogoEntry, 0, len(teams))

	for _, t := range teams {
		baselineCounties := baselineIdx[t.ID]

		ownerID, owned := MajorityOwner(baselineCounties, current)
		if ownerID == "" {
			ownerID = t.ID
			owned = 0
		}

		ownerName := ownerID
		logoURL := ""
		if owner, ok := byID[ownerID]; ok {
			ownerName = owner.DisplayName()
			logoURL = owner.LogoURL
		}

		entries = append(entries, LogoEntry{
			CampusTeamID:     t.ID,
			CampusTeamName:   t.DisplayName(),
			Latitude:         t.Latitude,
			Longitude:        t.Longitude,
			CurrentOwnerID:   ownerID,
			CurrentOwnerName: ownerName,
			LogoURL:          logoURL,
			CountiesOwned:    owned,
			TotalCounties:    len(baselineCounties),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CampusTeamID < entries[j].CampusTeamID
	})

	return Payload{
		Season:      season,
		WeekIndex:   weekIndex,
		GeneratedAt: now,
		Logos:       entries,
	}
}
