package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTeams(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "teams.json", `[
		{"id": "alabama", "school": "Alabama", "name": "Crimson Tide", "lat": 33.2, "lon": -87.5},
		{"id": "michigan", "school": "Michigan", "name": "Wolverines", "lat": 42.27, "lon": -83.75}
	]`)

	teams, byID, err := LoadTeams(dir)
	if err != nil {
		t.Fatalf("load teams: %v", err)
	}
	if len(teams) != 2 || len(byID) != 2 {
		t.Fatalf("want 2 teams, got %d/%d", len(teams), len(byID))
	}
	if byID["alabama"].School != "Alabama" || byID["alabama"].Latitude != 33.2 {
		t.Fatalf("unexpected team: %+v", byID["alabama"])
	}
}

func TestLoadTeamsRejectsBadData(t *testing.T) {
	t.Run("duplicate id", func(t *testing.T) {
		dir := t.TempDir()
		writeFixture(t, dir, "teams.json", `[
			{"id": "alabama", "school": "Alabama"},
			{"id": "alabama", "school": "Alabama A"}
		]`)
		if _, _, err := LoadTeams(dir); err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Fatalf("want duplicate id error, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		dir := t.TempDir()
		writeFixture(t, dir, "teams.json", `[{"school": "Alabama"}]`)
		if _, _, err := LoadTeams(dir); err == nil {
			t.Fatal("want error for team without id")
		}
	})
}

func TestLoadCounties(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "county-stats.json", `{
		"01001": {"name": "Autauga", "state": "AL", "population": 58805, "areaSqMi": 594.4, "centroidLat": 32.5, "centroidLon": -86.6},
		"26161": {"fips": "26161", "name": "Washtenaw", "state": "MI", "population": 372258, "areaSqMi": 705.9, "centroidLat": 42.25, "centroidLon": -83.8}
	}`)

	counties, err := LoadCounties(dir)
	if err != nil {
		t.Fatalf("load counties: %v", err)
	}
	if len(counties) != 2 {
		t.Fatalf("want 2 counties, got %d", len(counties))
	}
	// FIPS backfills from the map key when the field is absent.
	if counties["01001"].FIPS != "01001" {
		t.Errorf("FIPS not backfilled: %+v", counties["01001"])
	}
	if counties["26161"].Population != 372258 {
		t.Errorf("unexpected county: %+v", counties["26161"])
	}
}

func TestSlugifySchool(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Alabama", "alabama"},
		{"Ohio State", "ohio-state"},
		{"Hawai'i", "hawaii"},
		{"  Texas A&M  ", "texas-a&m"},
	}
	for _, c := range cases {
		if got := SlugifySchool(c.in); got != c.want {
			t.Errorf("SlugifySchool(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoadCampusCSV(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "team_locs.csv", strings.Join([]string{
		"School,Team_Name,City,State,Latitude,Longitude",
		"Alabama,Crimson Tide,Tuscaloosa,AL,33.2094,-87.5384",
		"Ohio State,Buckeyes,Columbus,OH,40.0017,-83.0197",
	}, "\n"))

	locs, err := LoadCampusCSV(filepath.Join(dir, "team_locs.csv"))
	if err != nil {
		t.Fatalf("load campus csv: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("want 2 locations, got %d", len(locs))
	}
	if locs[0].TeamID != "alabama" || locs[0].City != "Tuscaloosa" || locs[0].Latitude != 33.2094 {
		t.Fatalf("unexpected first row: %+v", locs[0])
	}
	if locs[1].TeamID != "ohio-state" {
		t.Fatalf("slug id wrong: %+v", locs[1])
	}
}

func TestLoadCampusCSVMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "bad.csv", "School,City\nAlabama,Tuscaloosa\n")

	if _, err := LoadCampusCSV(filepath.Join(dir, "bad.csv")); err == nil {
		t.Fatal("want error for missing coordinate columns")
	}
}
