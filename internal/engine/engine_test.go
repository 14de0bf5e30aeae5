package engine_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"imperialmap/internal/engine"
	"imperialmap/internal/territory"
)

func intp(v int) *int { return &v }

func week1() engine.WeekContext {
	return engine.WeekContext{Season: 2025, WeekIndex: 1, Week: 1, SeasonType: "regular"}
}

func baselineFixture() (map[string]string, map[string]map[string]bool) {
	ownership := map[string]string{
		"01001": "team-a",
		"01002": "team-a",
		"01003": "team-a",
		"01004": "team-b",
		"01005": "team-b",
	}
	return ownership, territory.BuildTeamIndex(ownership)
}

func TestOutcome(t *testing.T) {
	Convey("Given game results", t, func() {
		Convey("A decisive final produces a winner and loser", func() {
			g := engine.Game{ID: "g1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(30), AwayScore: intp(10)}
			winner, loser, ok := engine.Outcome(g)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, "team-a")
			So(loser, ShouldEqual, "team-b")
		})

		Convey("An away win flips winner and loser", func() {
			g := engine.Game{ID: "g1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(7), AwayScore: intp(21)}
			winner, loser, ok := engine.Outcome(g)
			So(ok, ShouldBeTrue)
			So(winner, ShouldEqual, "team-b")
			So(loser, ShouldEqual, "team-a")
		})

		Convey("A tie is not decisive", func() {
			g := engine.Game{ID: "g1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(14), AwayScore: intp(14)}
			_, _, ok := engine.Outcome(g)
			So(ok, ShouldBeFalse)
		})

		Convey("A scheduled game is not decisive", func() {
			g := engine.Game{ID: "g1", Status: "scheduled", HomeTeamID: "team-a", AwayTeamID: "team-b"}
			_, _, ok := engine.Outcome(g)
			So(ok, ShouldBeFalse)
		})

		Convey("A final missing a score is not decisive", func() {
			g := engine.Game{ID: "g1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(10)}
			_, _, ok := engine.Outcome(g)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestApplyWeekAllOfLoser(t *testing.T) {
	Convey("Given team A owning {01001,01002,01003} and team B owning {01004,01005}", t, func() {
		ownership, teamIndex := baselineFixture()
		known := map[string]bool{"team-a": true, "team-b": true, "team-c": true}
		now := time.Date(2025, 9, 6, 23, 0, 0, 0, time.UTC)

		Convey("When A defeats B 30-10", func() {
			games := []engine.Game{{
				ID: "g-1", Season: 2025, Week: 1, Status: engine.StatusFinal,
				HomeTeamID: "team-a", AwayTeamID: "team-b",
				HomeScore: intp(30), AwayScore: intp(10),
			}}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("A owns everything and B owns nothing", func() {
				for _, fips := range []string{"01001", "01002", "01003", "01004", "01005"} {
					So(ownership[fips], ShouldEqual, "team-a")
				}
				So(len(teamIndex["team-b"]), ShouldEqual, 0)
				So(len(teamIndex["team-a"]), ShouldEqual, 5)
			})

			Convey("Exactly one event per transferred county, referencing the game", func() {
				So(res.Events, ShouldHaveLength, 2)
				So(res.Events[0].FIPS, ShouldEqual, "01004")
				So(res.Events[1].FIPS, ShouldEqual, "01005")
				for _, ev := range res.Events {
					So(ev.GameID, ShouldEqual, "g-1")
					So(ev.FromTeamID, ShouldEqual, "team-b")
					So(ev.ToTeamID, ShouldEqual, "team-a")
					So(ev.WeekIndex, ShouldEqual, 1)
				}
			})

			Convey("County count is conserved", func() {
				So(len(ownership), ShouldEqual, 5)
			})
		})

		Convey("When the game is a 14-14 tie", func() {
			games := []engine.Game{{
				ID: "g-1", Status: engine.StatusFinal,
				HomeTeamID: "team-a", AwayTeamID: "team-b",
				HomeScore: intp(14), AwayScore: intp(14),
			}}
			before := territory.CloneOwnership(ownership)
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("Nothing changes and no events are produced", func() {
				So(res.Events, ShouldBeEmpty)
				So(res.GamesIgnored, ShouldEqual, 1)
				So(ownership, ShouldResemble, before)
			})
		})

		Convey("When the game id was already applied in a previous run", func() {
			games := []engine.Game{{
				ID: "g-1", Status: engine.StatusFinal,
				HomeTeamID: "team-a", AwayTeamID: "team-b",
				HomeScore: intp(30), AwayScore: intp(10),
			}}
			logged := map[string][]engine.TransferEvent{
				"g-1": {
					{ID: "ev-1", Season: 2025, WeekIndex: 1, GameID: "g-1", FIPS: "01004", FromTeamID: "team-b", ToTeamID: "team-a", At: now},
					{ID: "ev-2", Season: 2025, WeekIndex: 1, GameID: "g-1", FIPS: "01005", FromTeamID: "team-b", ToTeamID: "team-a", At: now},
				},
			}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, logged, now)

			Convey("No duplicate events appear but the logged transfers replay into the state", func() {
				So(res.Events, ShouldBeEmpty)
				So(res.GamesSkipped, ShouldEqual, 1)
				So(ownership["01004"], ShouldEqual, "team-a")
				So(ownership["01005"], ShouldEqual, "team-a")
				So(len(teamIndex["team-b"]), ShouldEqual, 0)
				So(teamIndex["team-a"]["01004"], ShouldBeTrue)
			})
		})

		Convey("When the loser owns no counties", func() {
			games := []engine.Game{{
				ID: "g-1", Status: engine.StatusFinal,
				HomeTeamID: "team-a", AwayTeamID: "team-c",
				HomeScore: intp(30), AwayScore: intp(10),
			}}
			before := territory.CloneOwnership(ownership)
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("The game processes with zero events, and recomputing it later is harmless", func() {
				So(res.GamesProcessed, ShouldEqual, 1)
				So(res.Events, ShouldBeEmpty)
				So(ownership, ShouldResemble, before)

				again := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)
				So(again.Events, ShouldBeEmpty)
				So(ownership, ShouldResemble, before)
			})
		})

		Convey("When a game references an unknown team", func() {
			games := []engine.Game{
				{ID: "bad", Status: engine.StatusFinal, HomeTeamID: "team-x", AwayTeamID: "team-b", HomeScore: intp(40), AwayScore: intp(0)},
				{ID: "good", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(30), AwayScore: intp(10)},
			}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("The malformed game is skipped and the rest of the batch still applies", func() {
				So(res.GamesInvalid, ShouldEqual, 1)
				So(res.GamesProcessed, ShouldEqual, 1)
				So(res.Events, ShouldHaveLength, 2)
			})
		})

		Convey("When a final game is missing a score", func() {
			games := []engine.Game{{
				ID: "g-1", Status: engine.StatusFinal,
				HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(30),
			}}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("It counts as invalid, not merely ignored", func() {
				So(res.GamesInvalid, ShouldEqual, 1)
				So(res.GamesIgnored, ShouldEqual, 0)
				So(res.Events, ShouldBeEmpty)
			})
		})

		Convey("When the same loser appears in two games in one batch", func() {
			games := []engine.Game{
				{ID: "g-1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(30), AwayScore: intp(10)},
				{ID: "g-2", Status: engine.StatusFinal, HomeTeamID: "team-c", AwayTeamID: "team-b", HomeScore: intp(20), AwayScore: intp(3)},
			}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("Listed order wins: B's counties went to A, the second game moves nothing", func() {
				So(res.Events, ShouldHaveLength, 2)
				So(ownership["01004"], ShouldEqual, "team-a")
				So(ownership["01005"], ShouldEqual, "team-a")
				So(res.GamesProcessed, ShouldEqual, 2)
			})
		})

		Convey("When the loser then beats the winner later in the same batch", func() {
			games := []engine.Game{
				{ID: "g-1", Status: engine.StatusFinal, HomeTeamID: "team-a", AwayTeamID: "team-b", HomeScore: intp(30), AwayScore: intp(10)},
				{ID: "g-2", Status: engine.StatusFinal, HomeTeamID: "team-b", AwayTeamID: "team-a", HomeScore: intp(9), AwayScore: intp(7)},
			}
			res := engine.ApplyWeek(week1(), games, ownership, teamIndex, known, nil, now)

			Convey("B ends up with everything A accumulated", func() {
				So(res.Events, ShouldHaveLength, 2+5)
				for _, fips := range []string{"01001", "01002", "01003", "01004", "01005"} {
					So(ownership[fips], ShouldEqual, "team-b")
				}
			})
		})
	})
}
