// Package engine implements the territory transfer rule: a completed,
// decisive game moves every county the loser owns to the winner.
package engine

import "time"

// Game completion statuses accepted from the ingestion step.
const (
	StatusFinal     = "final"
	StatusCompleted = "completed"
)

// Game is a normalized result record for one matchup. Scores are pointers
// because an unplayed game legitimately has none; a final game without both
// scores is malformed.
type Game struct {
	ID         string `json:"id"`
	Season     int    `json:"season"`
	Week       int    `json:"week"`
	SeasonType string `json:"seasonType"`
	HomeTeamID string `json:"homeTeamId"`
	AwayTeamID string `json:"awayTeamId"`
	HomeScore  *int   `json:"homeScore"`
	AwayScore  *int   `json:"awayScore"`
	Status     string `json:"status"`
	StartDate  string `json:"startDate,omitempty"`
}

// Completed reports whether the game reached a final state.
func (g Game) Completed() bool {
	return g.Status == StatusFinal || g.Status == StatusCompleted
}

// TransferEvent records one county changing hands. Events are append-only;
// the full log replays to the owner of any county at any week.
type TransferEvent struct {
	ID         string    `json:"id"`
	Season     int       `json:"season"`
	WeekIndex  int       `json:"weekIndex"`
	Week       int       `json:"week"`
	SeasonType string    `json:"seasonType,omitempty"`
	GameID     string    `json:"gameId"`
	FIPS       string    `json:"fips"`
	FromTeamID string    `json:"fromTeamId"`
	ToTeamID   string    `json:"toTeamId"`
	Reason     string    `json:"reason"`
	At         time.Time `json:"at"`
}
