// Package ingest normalizes raw CFBD rows into the closed Game record and
// arranges a season's games into the chronological week timeline the apply
// step walks.
package ingest

import (
	"fmt"
	"sort"
	"strings"

	"imperialmap/internal/cfbd"
	"imperialmap/internal/engine"
	"imperialmap/internal/logging"
	"imperialmap/internal/refdata"
	"imperialmap/internal/store"
)

// NameLookup maps every name variant we might see from the API to a team id.
func NameLookup(teams []refdata.Team) map[string]string {
	lookup := make(map[string]string)
	add := func(name, id string) {
		key := normalizeName(name)
		if key != "" {
			lookup[key] = id
		}
	}
	for _, t := range teams {
		add(t.School, t.ID)
		add(t.Name, t.ID)
		add(t.ShortName, t.ID)
		add(t.FullName, t.ID)
		add(t.ID, t.ID)
	}
	return lookup
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ResolveTeamID maps an upstream school name to a team id, falling back to
// the slug form. Empty means the team is not tracked (e.g. an FCS opponent).
func ResolveTeamID(name string, lookup map[string]string) string {
	if id, ok := lookup[normalizeName(name)]; ok {
		return id
	}
	if id, ok := lookup[refdata.SlugifySchool(name)]; ok {
		return id
	}
	return ""
}

// Normalize converts raw CFBD rows into Game records. Incomplete games and
// games against untracked opponents are dropped; duplicates (the API can
// repeat rows across queries) collapse by game id, first row wins.
func Normalize(raw []cfbd.RawGame, lookup map[string]string) []engine.Game {
	logger := logging.Logger()
	seen := make(map[string]bool)
	var out []engine.Game

	for _, r := range raw {
		if !r.Completed {
			continue
		}
		homeID := ResolveTeamID(r.HomeTeam, lookup)
		awayID := ResolveTeamID(r.AwayTeam, lookup)
		if homeID == "" || awayID == "" {
			continue
		}
		if r.HomePoints == nil || r.AwayPoints == nil {
			logger.Warnf("dropping completed game %d (%s vs %s): missing score", r.ID, r.HomeTeam, r.AwayTeam)
			continue
		}

		id := fmt.Sprint(r.ID)
		if seen[id] {
			continue
		}
		seen[id] = true

		out = append(out, engine.Game{
			ID:         id,
			Season:     r.Season,
			Week:       r.Week,
			SeasonType: r.SeasonType,
			HomeTeamID: homeID,
			AwayTeamID: awayID,
			HomeScore:  r.HomePoints,
			AwayScore:  r.AwayPoints,
			Status:     engine.StatusFinal,
			StartDate:  r.StartDate,
		})
	}
	return out
}

// WeekGames pairs a timeline entry with its games.
type WeekGames struct {
	Ref   store.WeekRef
	Games []engine.Game
}

// BuildTimeline buckets a season's games by (seasonType, week) and assigns
// chronological week indexes: regular weeks in order, then postseason.
// Index 0 is reserved for the baseline snapshot.
func BuildTimeline(season int, games []engine.Game) []WeekGames {
	buckets := make(map[string]map[int][]engine.Game)
	for _, g := range games {
		st := g.SeasonType
		if st == "" {
			st = "regular"
		}
		if buckets[st] == nil {
			buckets[st] = make(map[int][]engine.Game)
		}
		buckets[st][g.Week] = append(buckets[st][g.Week], g)
	}

	var timeline []WeekGames
	index := 1
	for _, st := range []string{"regular", "postseason"} {
		weeks := make([]int, 0, len(buckets[st]))
		for w := range buckets[st] {
			weeks = append(weeks, w)
		}
		sort.Ints(weeks)

		for _, w := range weeks {
			wg := buckets[st][w]
			sort.Slice(wg, func(i, j int) bool {
				if wg[i].StartDate != wg[j].StartDate {
					return wg[i].StartDate < wg[j].StartDate
				}
				return wg[i].ID < wg[j].ID
			})

			label := fmt.Sprintf("Regular Week %d", w)
			if st == "postseason" {
				label = fmt.Sprintf("Postseason Week %d", w)
			}
			timeline = append(timeline, WeekGames{
				Ref: store.WeekRef{
					WeekIndex:  index,
					Week:       w,
					SeasonType: st,
					Label:      label,
					Path:       "/data/" + store.GamesRel(season, index),
				},
				Games: wg,
			})
			index++
		}
	}
	return timeline
}
