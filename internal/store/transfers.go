package store

import (
	"errors"

	"imperialmap/internal/engine"
)

const transfersRel = "transfers.json"

// ReadTransfers loads the full transfer history. A log that does not exist
// yet reads as empty.
func (s *Store) ReadTransfers() ([]engine.TransferEvent, error) {
	var events []engine.TransferEvent
	if err := s.readJSON(transfersRel, &events); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return events, nil
}

// AppendTransferEvents appends to the permanent history log. Existing events
// are never rewritten or dropped.
func (s *Store) AppendTransferEvents(events []engine.TransferEvent) error {
	if len(events) == 0 {
		return nil
	}
	history, err := s.ReadTransfers()
	if err != nil {
		return err
	}
	history = append(history, events...)
	return s.writeJSON(transfersRel, history)
}

// TransfersByGame groups a season's logged events by game id, preserving log
// order within each game. The engine treats presence in this map as "already
// applied" and replays the events instead of reprocessing the game, which is
// what keeps re-runs idempotent.
func (s *Store) TransfersByGame(season int) (map[string][]engine.TransferEvent, error) {
	events, err := s.ReadTransfers()
	if err != nil {
		return nil, err
	}
	byGame := make(map[string][]engine.TransferEvent)
	for _, ev := range events {
		if ev.Season == season {
			byGame[ev.GameID] = append(byGame[ev.GameID], ev)
		}
	}
	return byGame, nil
}

// TransfersForWeek filters the log down to one (season, weekIndex).
func (s *Store) TransfersForWeek(season, weekIndex int) ([]engine.TransferEvent, error) {
	events, err := s.ReadTransfers()
	if err != nil {
		return nil, err
	}
	var out []engine.TransferEvent
	for _, ev := range events {
		if ev.Season == season && ev.WeekIndex == weekIndex {
			out = append(out, ev)
		}
	}
	return out, nil
}

// TransfersForCounty filters the log down to one county within a season,
// preserving log order so callers can replay it.
func (s *Store) TransfersForCounty(season int, fips string) ([]engine.TransferEvent, error) {
	events, err := s.ReadTransfers()
	if err != nil {
		return nil, err
	}
	var out []engine.TransferEvent
	for _, ev := range events {
		if ev.Season == season && ev.FIPS == fips {
			out = append(out, ev)
		}
	}
	return out, nil
}
