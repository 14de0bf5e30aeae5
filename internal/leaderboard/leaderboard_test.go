package leaderboard_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"imperialmap/internal/leaderboard"
	"imperialmap/internal/refdata"
)

func fixture() (map[string]refdata.County, map[string]refdata.Team) {
	counties := map[string]refdata.County{
		"01": {FIPS: "01", Population: 100, AreaSqMi: 10},
		"02": {FIPS: "02", Population: 200, AreaSqMi: 20},
		"03": {FIPS: "03", Population: 300, AreaSqMi: 30},
		"04": {FIPS: "04", Population: 400, AreaSqMi: 40},
		"05": {FIPS: "05", Population: 500, AreaSqMi: 50},
	}
	teams := map[string]refdata.Team{
		"team-a": {ID: "team-a", School: "Team A", ShortName: "A", Conference: "SEC"},
		"team-b": {ID: "team-b", School: "Team B", ShortName: "B", Conference: "Big Ten"},
	}
	return counties, teams
}

func meta(weekIndex int) leaderboard.WeekMeta {
	return leaderboard.WeekMeta{Season: 2025, WeekIndex: weekIndex, Week: weekIndex, SeasonType: "regular", Label: "Week"}
}

func TestCompute(t *testing.T) {
	Convey("Given A beat B and took B's two counties", t, func() {
		counties, teams := fixture()
		previous := map[string]string{
			"01": "team-a", "02": "team-a", "03": "team-a",
			"04": "team-b", "05": "team-b",
		}
		current := map[string]string{
			"01": "team-a", "02": "team-a", "03": "team-a",
			"04": "team-a", "05": "team-a",
		}
		now := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)

		payload := leaderboard.Compute(meta(1), current, previous, counties, teams, 0, now)

		Convey("A owns everything on the counties board", func() {
			So(payload.Boards.CountiesOwned, ShouldHaveLength, 1)
			entry := payload.Boards.CountiesOwned[0]
			So(entry.TeamID, ShouldEqual, "team-a")
			So(entry.Metrics.Counties, ShouldEqual, 5)
			So(entry.Metrics.Population, ShouldEqual, 1500)
			So(entry.Metrics.AreaSqMi, ShouldEqual, 150.0)
		})

		Convey("A gained two counties, B lost two", func() {
			So(payload.Boards.TerritoryGained, ShouldHaveLength, 1)
			So(payload.Boards.TerritoryGained[0].TeamID, ShouldEqual, "team-a")
			So(payload.Boards.TerritoryGained[0].Metrics.Counties, ShouldEqual, 2)

			So(payload.Boards.TerritoryLost, ShouldHaveLength, 1)
			So(payload.Boards.TerritoryLost[0].TeamID, ShouldEqual, "team-b")
			So(payload.Boards.TerritoryLost[0].Metrics.Counties, ShouldEqual, 2)
		})

		Convey("B owns zero counties so it is absent from ownership boards", func() {
			for _, board := range [][]leaderboard.Entry{
				payload.Boards.CountiesOwned,
				payload.Boards.PopulationControlled,
				payload.Boards.TerritoryOwned,
			} {
				for _, entry := range board {
					So(entry.TeamID, ShouldNotEqual, "team-b")
				}
			}
		})

		Convey("Totals are conserved against the snapshot", func() {
			So(payload.Totals.CountyCount, ShouldEqual, 5)
			So(payload.Totals.TrackedTeams, ShouldEqual, 1)

			sumCounties := 0
			var sumPop int64
			for _, entry := range payload.Boards.CountiesOwned {
				sumCounties += entry.Metrics.Counties
				sumPop += entry.Metrics.Population
			}
			So(sumCounties, ShouldEqual, 5)
			So(sumPop, ShouldEqual, 1500)
		})

		Convey("A team cannot both gain and lose in the same week", func() {
			gained := map[string]bool{}
			for _, entry := range payload.Boards.TerritoryGained {
				gained[entry.TeamID] = true
			}
			for _, entry := range payload.Boards.TerritoryLost {
				So(gained[entry.TeamID], ShouldBeFalse)
			}
		})
	})

	Convey("Given a quiet week with no transfers", t, func() {
		counties, teams := fixture()
		snapshot := map[string]string{
			"01": "team-a", "02": "team-a", "03": "team-a",
			"04": "team-b", "05": "team-b",
		}
		now := time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)

		payload := leaderboard.Compute(meta(2), snapshot, snapshot, counties, teams, 0, now)

		Convey("Gained and lost boards are empty", func() {
			So(payload.Boards.TerritoryGained, ShouldBeEmpty)
			So(payload.Boards.TerritoryLost, ShouldBeEmpty)
		})

		Convey("Boards rank by their own metric", func() {
			So(payload.Boards.CountiesOwned[0].TeamID, ShouldEqual, "team-a")
			// B's two counties outweigh A's three on population and area.
			So(payload.Boards.PopulationControlled[0].TeamID, ShouldEqual, "team-b")
			So(payload.Boards.TerritoryOwned[0].TeamID, ShouldEqual, "team-b")
		})

		Convey("Top-N truncation bounds each board", func() {
			small := leaderboard.Compute(meta(2), snapshot, snapshot, counties, teams, 1, now)
			So(small.Boards.CountiesOwned, ShouldHaveLength, 1)
			So(small.Boards.PopulationControlled, ShouldHaveLength, 1)
		})
	})
}
