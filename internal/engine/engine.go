package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"imperialmap/internal/logging"
	"imperialmap/internal/territory"
)

// WeekContext labels the batch being applied.
type WeekContext struct {
	Season     int
	WeekIndex  int
	Week       int
	SeasonType string
}

// WeekResult summarizes one week's application.
type WeekResult struct {
	Events         []TransferEvent
	GamesProcessed int
	GamesSkipped   int // already applied in a previous run
	GamesIgnored   int // not final, tied, or otherwise non-decisive
	GamesInvalid   int // malformed; reported and skipped
}

// CountiesTransferred is the number of ownership changes this week produced.
func (r WeekResult) CountiesTransferred() int {
	return len(r.Events)
}

// Outcome derives the winner and loser of a game. ok is false for anything
// non-decisive: not final, missing a score, or a tie. Non-decisive games are
// a defined no-op, not an error.
func Outcome(g Game) (winner, loser string, ok bool) {
	if !g.Completed() {
		return "", "", false
	}
	if g.HomeScore == nil || g.AwayScore == nil {
		return "", "", false
	}
	if *g.HomeScore == *g.AwayScore {
		return "", "", false
	}
	if *g.HomeScore > *g.AwayScore {
		return g.HomeTeamID, g.AwayTeamID, true
	}
	return g.AwayTeamID, g.HomeTeamID, true
}

// Validate rejects games the rule cannot apply: missing ids, home == away,
// or a team id absent from reference data.
func Validate(g Game, knownTeams map[string]bool) error {
	if g.ID == "" {
		return fmt.Errorf("game has no id")
	}
	if g.HomeTeamID == "" || g.AwayTeamID == "" {
		return fmt.Errorf("game %s is missing a team id", g.ID)
	}
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game %s lists %s on both sides", g.ID, g.HomeTeamID)
	}
	if !knownTeams[g.HomeTeamID] {
		return fmt.Errorf("game %s references unknown team %s", g.ID, g.HomeTeamID)
	}
	if !knownTeams[g.AwayTeamID] {
		return fmt.Errorf("game %s references unknown team %s", g.ID, g.AwayTeamID)
	}
	return nil
}

// ApplyWeek runs the all-of-loser rule over one week's games, mutating
// ownership and teamIndex in place. Games are processed in the order given,
// so a loser appearing twice in one batch resolves reproducibly.
//
// logged holds the transfer events already committed to the history log,
// keyed by game id. A game present there is not reprocessed; its logged
// events are replayed into the working state instead, so a re-run over
// committed weeks reconstructs each snapshot byte for byte. A decisive game
// whose loser owned nothing leaves no log entries and is recomputed on every
// run; that is safe because the replayed state matches the original, so it
// produces the same empty result each time.
//
// The caller passes a copy of the prior snapshot; the committed snapshot is
// never touched.
func ApplyWeek(
	wc WeekContext,
	games []Game,
	ownership map[string]string,
	teamIndex map[string]map[string]bool,
	knownTeams map[string]bool,
	logged map[string][]TransferEvent,
	now time.Time,
) WeekResult {
	logger := logging.Logger()
	var res WeekResult

	for _, g := range games {
		if err := Validate(g, knownTeams); err != nil {
			logger.Warnf("week %d: skipping malformed game: %v", wc.WeekIndex, err)
			res.GamesInvalid++
			continue
		}
		if replay, done := logged[g.ID]; done {
			logger.Debugf("week %d: game %s already applied, replaying %d logged transfers",
				wc.WeekIndex, g.ID, len(replay))
			res.GamesSkipped++
			for _, ev := range replay {
				delete(teamIndex[ownership[ev.FIPS]], ev.FIPS)
				ownership[ev.FIPS] = ev.ToTeamID
				set, ok := teamIndex[ev.ToTeamID]
				if !ok {
					set = make(map[string]bool)
					teamIndex[ev.ToTeamID] = set
				}
				set[ev.FIPS] = true
			}
			continue
		}

		winner, loser, ok := Outcome(g)
		if !ok {
			if g.Completed() && (g.HomeScore == nil || g.AwayScore == nil) {
				// A final game without both scores is malformed rather than
				// merely non-decisive.
				logger.Warnf("week %d: final game %s is missing a score", wc.WeekIndex, g.ID)
				res.GamesInvalid++
			} else {
				res.GamesIgnored++
			}
			continue
		}

		res.GamesProcessed++

		// Every county the loser holds moves to the winner, one event per
		// county. Sorted order keeps event sequences reproducible.
		loserCounties := territory.SortedFIPS(teamIndex[loser])
		reason := fmt.Sprintf("%s defeated %s (all-of-loser rule)", winner, loser)
		for _, fips := range loserCounties {
			res.Events = append(res.Events, TransferEvent{
				ID:         uuid.NewString(),
				Season:     wc.Season,
				WeekIndex:  wc.WeekIndex,
				Week:       wc.Week,
				SeasonType: wc.SeasonType,
				GameID:     g.ID,
				FIPS:       fips,
				FromTeamID: loser,
				ToTeamID:   winner,
				Reason:     reason,
				At:         now,
			})

			ownership[fips] = winner
			delete(teamIndex[loser], fips)
			winnerSet, ok := teamIndex[winner]
			if !ok {
				winnerSet = make(map[string]bool)
				teamIndex[winner] = winnerSet
			}
			winnerSet[fips] = true
		}

		if len(loserCounties) > 0 {
			logger.Debugf("week %d: %s took %d counties from %s (game %s)",
				wc.WeekIndex, winner, len(loserCounties), loser, g.ID)
		}
	}

	return res
}
