package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// CampusLocation is one row of the campus locations CSV used during setup.
type CampusLocation struct {
	TeamID    string
	School    string
	Name      string
	City      string
	State     string
	Latitude  float64
	Longitude float64
}

// SlugifySchool derives a stable team id from a school name:
// lowercase, spaces to hyphens, apostrophes dropped.
func SlugifySchool(school string) string {
	s := strings.ToLower(strings.TrimSpace(school))
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// LoadCampusCSV reads a team_locs.csv file with header columns
// School, Team_Name, City, State, Latitude, Longitude.
func LoadCampusCSV(path string) ([]CampusLocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open campus csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read campus csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"School", "Latitude", "Longitude"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("campus csv missing %s column", required)
		}
	}

	var out []CampusLocation
	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read campus csv line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(rec[col["Latitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("campus csv line %d: bad latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(rec[col["Longitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("campus csv line %d: bad longitude: %w", line, err)
		}

		loc := CampusLocation{
			School:    rec[col["School"]],
			Latitude:  lat,
			Longitude: lon,
		}
		loc.TeamID = SlugifySchool(loc.School)
		if i, ok := col["Team_Name"]; ok {
			loc.Name = rec[i]
		}
		if i, ok := col["City"]; ok {
			loc.City = rec[i]
		}
		if i, ok := col["State"]; ok {
			loc.State = rec[i]
		}
		out = append(out, loc)
	}
	return out, nil
}
