package pipeline

import (
	"context"
	"fmt"

	"imperialmap/internal/cfbd"
	"imperialmap/internal/engine"
	"imperialmap/internal/ingest"
	"imperialmap/internal/logging"
	"imperialmap/internal/store"
)

// IngestOptions controls a fetch of game results.
type IngestOptions struct {
	Season         int
	SeasonType     string // regular, postseason, or both
	MaxRegularWeek int    // <=0 means no cap
	DryRun         bool
}

// Ingest pulls completed games from CFBD, normalizes them against team
// reference data, and writes the per-week game files plus the season
// timeline index the apply step consumes.
func (r *Runner) Ingest(ctx context.Context, client *cfbd.Client, opts IngestOptions) error {
	logger := logging.Logger()

	lookup := ingest.NameLookup(r.teams)

	var all []engine.Game
	seasonTypes := []string{"regular", "postseason"}
	switch opts.SeasonType {
	case "regular":
		seasonTypes = []string{"regular"}
	case "postseason":
		seasonTypes = []string{"postseason"}
	}

	for _, st := range seasonTypes {
		raw, err := client.FetchGames(ctx, opts.Season, st)
		if err != nil {
			return fmt.Errorf("fetch %s games: %w", st, err)
		}
		games := ingest.Normalize(raw, lookup)
		if st == "regular" && opts.MaxRegularWeek > 0 {
			kept := games[:0]
			for _, g := range games {
				if g.Week <= opts.MaxRegularWeek {
					kept = append(kept, g)
				}
			}
			games = kept
		}
		logger.Infof("normalized %d %s-season games for %d", len(games), st, opts.Season)
		all = append(all, games...)
	}

	timeline := ingest.BuildTimeline(opts.Season, all)

	if opts.DryRun {
		logger.Infof("dry run: would write %d week files for season %d", len(timeline), opts.Season)
		return nil
	}

	index := store.GamesIndex{Season: opts.Season}
	total := 0
	for _, wg := range timeline {
		if err := r.store.WriteGames(opts.Season, wg.Ref.WeekIndex, wg.Games); err != nil {
			return fmt.Errorf("write games for %s: %w", wg.Ref.Label, err)
		}
		index.Weeks = append(index.Weeks, wg.Ref)
		total += len(wg.Games)
	}
	if err := r.store.WriteGamesIndex(index); err != nil {
		return fmt.Errorf("write games index: %w", err)
	}

	logger.Infof("ingested %d completed games for %d across %d weeks", total, opts.Season, len(timeline))
	return nil
}
