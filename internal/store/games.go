package store

import (
	"fmt"
	"sort"

	"imperialmap/internal/engine"
)

// GamesIndex is the per-season timeline at games/{season}/index.json. Weeks
// are listed in chronological (week index) order; the apply step walks them
// strictly in that order.
type GamesIndex struct {
	Season int       `json:"season"`
	Weeks  []WeekRef `json:"weeks"`
}

// GamesRel returns the artifact path of a week's normalized games.
func GamesRel(season, weekIndex int) string {
	return fmt.Sprintf("games/%d/week-%02d.json", season, weekIndex)
}

func gamesIndexRel(season int) string {
	return fmt.Sprintf("games/%d/index.json", season)
}

// WriteGames persists one week's normalized game records.
func (s *Store) WriteGames(season, weekIndex int, games []engine.Game) error {
	return s.writeJSON(GamesRel(season, weekIndex), games)
}

// ReadGames loads one week's normalized game records.
func (s *Store) ReadGames(season, weekIndex int) ([]engine.Game, error) {
	var games []engine.Game
	if err := s.readJSON(GamesRel(season, weekIndex), &games); err != nil {
		return nil, err
	}
	return games, nil
}

// WriteGamesIndex persists the season timeline, sorted by week index.
func (s *Store) WriteGamesIndex(index GamesIndex) error {
	sort.Slice(index.Weeks, func(i, j int) bool {
		return index.Weeks[i].WeekIndex < index.Weeks[j].WeekIndex
	})
	return s.writeJSON(gamesIndexRel(index.Season), &index)
}

// ReadGamesIndex loads the season timeline.
func (s *Store) ReadGamesIndex(season int) (GamesIndex, error) {
	var index GamesIndex
	if err := s.readJSON(gamesIndexRel(season), &index); err != nil {
		return GamesIndex{}, err
	}
	sort.Slice(index.Weeks, func(i, j int) bool {
		return index.Weeks[i].WeekIndex < index.Weeks[j].WeekIndex
	})
	return index, nil
}
