// Package leaderboard derives per-team standings for a week from two
// adjacent ownership snapshots and county reference data.
package leaderboard

import (
	"math"
	"sort"
	"time"

	"imperialmap/internal/refdata"
)

// Metrics is the triple every board entry carries.
type Metrics struct {
	Counties   int     `json:"counties"`
	Population int64   `json:"population"`
	AreaSqMi   float64 `json:"areaSqMi"`
}

func (m *Metrics) add(c refdata.County) {
	m.Counties++
	m.Population += c.Population
	m.AreaSqMi += c.AreaSqMi
}

// Entry is one ranked team on a board.
type Entry struct {
	TeamID     string  `json:"teamId"`
	TeamName   string  `json:"teamName"`
	ShortName  string  `json:"shortName,omitempty"`
	FullName   string  `json:"fullName,omitempty"`
	Conference string  `json:"conference,omitempty"`
	Metrics    Metrics `json:"metrics"`
}

// Boards holds the five independently sorted rankings.
type Boards struct {
	TerritoryOwned       []Entry `json:"territoryOwned"`
	PopulationControlled []Entry `json:"populationControlled"`
	CountiesOwned        []Entry `json:"countiesOwned"`
	TerritoryGained      []Entry `json:"territoryGained"`
	TerritoryLost        []Entry `json:"territoryLost"`
}

// Totals summarizes the week as a whole.
type Totals struct {
	TrackedTeams int `json:"trackedTeams"`
	CountyCount  int `json:"countyCount"`
}

// Payload is the per-week leaderboard artifact.
type Payload struct {
	Season      int       `json:"season"`
	WeekIndex   int       `json:"weekIndex"`
	Week        int       `json:"week"`
	SeasonType  string    `json:"seasonType,omitempty"`
	WeekLabel   string    `json:"weekLabel"`
	GeneratedAt time.Time `json:"generatedAt"`
	Boards      Boards    `json:"leaderboards"`
	Totals      Totals    `json:"totals"`
}

// WeekMeta labels the week a payload describes.
type WeekMeta struct {
	Season     int
	WeekIndex  int
	Week       int
	SeasonType string
	Label      string
}

// Compute builds the full leaderboard payload for one week. previous is the
// prior week's snapshot (the baseline when computing week one); gained and
// lost come from diffing the two, so the boards agree with the snapshots by
// construction.
func Compute(
	meta WeekMeta,
	current, previous map[string]string,
	counties map[string]refdata.County,
	teams map[string]refdata.Team,
	topN int,
	now time.Time,
) Payload {
	owned := make(map[string]*Metrics)
	gained := make(map[string]*Metrics)
	lost := make(map[string]*Metrics)

	get := func(m map[string]*Metrics, teamID string) *Metrics {
		mt, ok := m[teamID]
		if !ok {
			mt = &Metrics{}
			m[teamID] = mt
		}
		return mt
	}

	for fips, teamID := range current {
		if teamID == "" {
			continue
		}
		county := counties[fips]
		get(owned, teamID).add(county)

		if prevOwner := previous[fips]; prevOwner != teamID {
			get(gained, teamID).add(county)
			if prevOwner != "" {
				get(lost, prevOwner).add(county)
			}
		}
	}

	boards := Boards{
		TerritoryOwned:       board(owned, teams, byArea, topN),
		PopulationControlled: board(owned, teams, byPopulation, topN),
		CountiesOwned:        board(owned, teams, byCounties, topN),
		TerritoryGained:      board(gained, teams, byCounties, topN),
		TerritoryLost:        board(lost, teams, byCounties, topN),
	}

	return Payload{
		Season:      meta.Season,
		WeekIndex:   meta.WeekIndex,
		Week:        meta.Week,
		SeasonType:  meta.SeasonType,
		WeekLabel:   meta.Label,
		GeneratedAt: now,
		Boards:      boards,
		Totals: Totals{
			TrackedTeams: len(owned),
			CountyCount:  len(current),
		},
	}
}

type metricKey int

const (
	byCounties metricKey = iota
	byPopulation
	byArea
)

func metricValue(m Metrics, key metricKey) float64 {
	switch key {
	case byPopulation:
		return float64(m.Population)
	case byArea:
		return m.AreaSqMi
	default:
		return float64(m.Counties)
	}
}

// board renders one ranking: teams with a zero primary metric are omitted
// (nothing to rank), ties fall through population then counties then team id.
func board(raw map[string]*Metrics, teams map[string]refdata.Team, key metricKey, topN int) []Entry {
	entries := make([]Entry, 0, len(raw))
	for teamID, m := range raw {
		if metricValue(*m, key) <= 0 {
			continue
		}
		e := Entry{TeamID: teamID, TeamName: teamID, Metrics: *m}
		e.Metrics.AreaSqMi = math.Round(e.Metrics.AreaSqMi*100) / 100
		if t, ok := teams[teamID]; ok {
			e.TeamName = t.DisplayName()
			e.ShortName = t.ShortName
			e.FullName = t.FullName
			e.Conference = t.Conference
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if av, bv := metricValue(a.Metrics, key), metricValue(b.Metrics, key); av != bv {
			return av > bv
		}
		if a.Metrics.Population != b.Metrics.Population {
			return a.Metrics.Population > b.Metrics.Population
		}
		if a.Metrics.Counties != b.Metrics.Counties {
			return a.Metrics.Counties > b.Metrics.Counties
		}
		return a.TeamID < b.TeamID
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
