package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
)

// LatestRef points at the most recent leaderboard across all seasons.
type LatestRef struct {
	Season     int    `json:"season"`
	WeekIndex  int    `json:"weekIndex"`
	Week       int    `json:"week"`
	SeasonType string `json:"seasonType,omitempty"`
	Label      string `json:"label"`
	Path       string `json:"path"`
}

// LeaderboardIndex is the discovery artifact at leaderboards/index.json.
type LeaderboardIndex struct {
	Seasons []SeasonEntry `json:"seasons"`
	Latest  *LatestRef    `json:"latest,omitempty"`
}

// LeaderboardRel returns the artifact path of a week's leaderboard payload.
func LeaderboardRel(season, weekIndex int) string {
	return fmt.Sprintf("leaderboards/%d/week-%02d.json", season, weekIndex)
}

// LogosRel returns the artifact path of a week's campus logo entries.
func LogosRel(season, weekIndex int) string {
	return fmt.Sprintf("logos/%d/week-%02d.json", season, weekIndex)
}

// WriteLogos persists the campus-majority logo artifact for one week.
func (s *Store) WriteLogos(season, weekIndex int, payload interface{}) error {
	return s.writeJSON(LogosRel(season, weekIndex), payload)
}

// WriteLeaderboard persists a week's leaderboard payload, folds the week into
// leaderboards/index.json, and refreshes the latest.json convenience cache.
func (s *Store) WriteLeaderboard(season int, ref WeekRef, payload interface{}) error {
	rel := LeaderboardRel(season, ref.WeekIndex)
	if err := s.writeJSON(rel, payload); err != nil {
		return err
	}
	ref.Path = "/data/" + rel

	index, err := s.updateLeaderboardIndex(season, ref)
	if err != nil {
		return err
	}
	return s.syncLatestLeaderboard(index, season, ref.WeekIndex, rel)
}

func (s *Store) updateLeaderboardIndex(season int, ref WeekRef) (*LeaderboardIndex, error) {
	var index LeaderboardIndex
	if err := s.readJSON("leaderboards/index.json", &index); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	entry := -1
	for i := range index.Seasons {
		if index.Seasons[i].Season == season {
			entry = i
			break
		}
	}
	if entry == -1 {
		index.Seasons = append(index.Seasons, SeasonEntry{Season: season})
		entry = len(index.Seasons) - 1
	}

	weeks := index.Seasons[entry].Weeks[:0]
	for _, w := range index.Seasons[entry].Weeks {
		if w.WeekIndex != ref.WeekIndex {
			weeks = append(weeks, w)
		}
	}
	weeks = append(weeks, ref)
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekIndex < weeks[j].WeekIndex })
	index.Seasons[entry].Weeks = weeks

	sort.Slice(index.Seasons, func(i, j int) bool {
		return index.Seasons[i].Season < index.Seasons[j].Season
	})

	// Latest leaderboard across every season.
	var latest *LatestRef
	for _, se := range index.Seasons {
		for _, w := range se.Weeks {
			if latest == nil || se.Season > latest.Season ||
				(se.Season == latest.Season && w.WeekIndex > latest.WeekIndex) {
				latest = &LatestRef{
					Season:     se.Season,
					WeekIndex:  w.WeekIndex,
					Week:       w.Week,
					SeasonType: w.SeasonType,
					Label:      w.Label,
					Path:       w.Path,
				}
			}
		}
	}
	index.Latest = latest

	if err := s.writeJSON("leaderboards/index.json", &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// syncLatestLeaderboard keeps leaderboards/latest.json a byte copy of the
// payload the index's latest pointer references.
func (s *Store) syncLatestLeaderboard(index *LeaderboardIndex, season, weekIndex int, writtenRel string) error {
	if index.Latest == nil {
		return nil
	}

	sourceRel := writtenRel
	if index.Latest.Season != season || index.Latest.WeekIndex != weekIndex {
		sourceRel = LeaderboardRel(index.Latest.Season, index.Latest.WeekIndex)
	}
	raw, err := os.ReadFile(s.abs(sourceRel))
	if err != nil {
		return fmt.Errorf("read %s for latest cache: %w", sourceRel, err)
	}
	return s.writeBytes("leaderboards/latest.json", raw)
}
