package store

import (
	"errors"
	"fmt"
	"sort"
)

// WeekRef identifies one computed week inside a season index. Path is the
// frontend-facing URL path of the artifact.
type WeekRef struct {
	WeekIndex  int    `json:"weekIndex"`
	Week       int    `json:"week"`
	SeasonType string `json:"seasonType,omitempty"`
	Label      string `json:"label"`
	Path       string `json:"path"`
}

// SeasonEntry groups the week refs of one season.
type SeasonEntry struct {
	Season int       `json:"season"`
	Weeks  []WeekRef `json:"weeks"`
}

// OwnershipIndex is the discovery artifact at ownership/index.json.
type OwnershipIndex struct {
	Seasons []SeasonEntry `json:"seasons"`
}

// SnapshotRel returns the artifact path of a weekly ownership snapshot.
func SnapshotRel(season, weekIndex int) string {
	return fmt.Sprintf("ownership/%d/week-%02d.json", season, weekIndex)
}

// SnapshotPath returns the frontend-facing path of a snapshot.
func SnapshotPath(season, weekIndex int) string {
	return "/data/" + SnapshotRel(season, weekIndex)
}

// WriteSnapshot commits an immutable weekly snapshot. If a snapshot already
// exists for (season, weekIndex) the write succeeds only when the content is
// byte-identical (a safe re-run) or overwrite is set; anything else fails
// with ErrSnapshotExists so double-processing cannot corrupt history.
func (s *Store) WriteSnapshot(season, weekIndex int, ownership map[string]string, overwrite bool) error {
	rel := SnapshotRel(season, weekIndex)
	raw, err := marshal(ownership)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", rel, err)
	}

	if !overwrite && s.exists(rel) {
		same, err := s.sameContent(rel, raw)
		if err != nil {
			return err
		}
		if same {
			return nil
		}
		return fmt.Errorf("%s: %w", rel, ErrSnapshotExists)
	}
	return s.writeBytes(rel, raw)
}

// ReadSnapshot loads the county -> team mapping for one week.
func (s *Store) ReadSnapshot(season, weekIndex int) (map[string]string, error) {
	var ownership map[string]string
	if err := s.readJSON(SnapshotRel(season, weekIndex), &ownership); err != nil {
		return nil, err
	}
	return ownership, nil
}

// UpdateOwnershipIndex replaces one season's week list in the ownership
// index, keeping the rest intact and seasons sorted.
func (s *Store) UpdateOwnershipIndex(season int, weeks []WeekRef) error {
	var index OwnershipIndex
	if err := s.readJSON("ownership/index.json", &index); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	kept := index.Seasons[:0]
	for _, entry := range index.Seasons {
		if entry.Season != season {
			kept = append(kept, entry)
		}
	}
	index.Seasons = append(kept, SeasonEntry{Season: season, Weeks: weeks})
	sort.Slice(index.Seasons, func(i, j int) bool {
		return index.Seasons[i].Season < index.Seasons[j].Season
	})

	return s.writeJSON("ownership/index.json", &index)
}

// ListWeeks returns the committed week refs for a season in ascending week
// index order, or ErrNotFound if the season has never been processed.
func (s *Store) ListWeeks(season int) ([]WeekRef, error) {
	var index OwnershipIndex
	if err := s.readJSON("ownership/index.json", &index); err != nil {
		return nil, err
	}
	for _, entry := range index.Seasons {
		if entry.Season == season {
			weeks := append([]WeekRef(nil), entry.Weeks...)
			sort.Slice(weeks, func(i, j int) bool { return weeks[i].WeekIndex < weeks[j].WeekIndex })
			return weeks, nil
		}
	}
	return nil, fmt.Errorf("season %d: %w", season, ErrNotFound)
}

// LatestWeek returns the highest committed week index for a season.
func (s *Store) LatestWeek(season int) (WeekRef, error) {
	weeks, err := s.ListWeeks(season)
	if err != nil {
		return WeekRef{}, err
	}
	if len(weeks) == 0 {
		return WeekRef{}, fmt.Errorf("season %d has no weeks: %w", season, ErrNotFound)
	}
	return weeks[len(weeks)-1], nil
}
