package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"imperialmap/internal/cfbd"
	"imperialmap/internal/config"
	"imperialmap/internal/logging"
	"imperialmap/internal/pipeline"
	"imperialmap/internal/refdata"
	"imperialmap/internal/runlock"
	"imperialmap/internal/store"
)

// Exit codes: automation keys off these to decide whether artifacts are
// publishable.
const (
	exitOK      = 0 // fully succeeded
	exitFailed  = 1 // critical path failed (or lock held)
	exitPartial = 2 // transfers committed, derived views had failures
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Logger()

	if len(os.Args) < 2 {
		usage()
		return exitFailed
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config load failed: %v", err)
		return exitFailed
	}
	logging.SetLevel(cfg.LogLevel)

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "setup":
		return runSetup(ctx, cfg, args)
	case "ingest":
		return runIngest(ctx, cfg, args)
	case "apply":
		return runApply(ctx, cfg, args)
	case "leaderboards":
		return runLeaderboards(ctx, cfg, args)
	case "logos":
		return runLogos(ctx, cfg, args)
	case "owner":
		return runOwner(ctx, cfg, args)
	default:
		logger.Errorf("unknown command %q", cmd)
		usage()
		return exitFailed
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: imperialmap <command> [flags]

commands:
  setup         assign the preseason baseline and commit the week-00 snapshot
  ingest        fetch completed games from CFBD and write the week files
  apply         apply game results to ownership, week by week
  leaderboards  recompute the leaderboard artifact for a committed week
  logos         recompute the campus logo artifact for a committed week
  owner         report which team owned a county as of a given week`)
}

// newRunner loads reference data and wires a Runner. withLock controls
// whether a run-lock backend is constructed (read-only commands skip it).
func newRunner(ctx context.Context, cfg *config.Config, withLock bool) (*pipeline.Runner, error) {
	st := store.New(cfg.DataDir)

	teams, byID, err := refdata.LoadTeams(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	counties, err := refdata.LoadCounties(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var lock runlock.Lock
	if withLock {
		lock, err = runlock.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("build run lock: %w", err)
		}
	}
	return pipeline.NewRunner(st, lock, teams, byID, counties), nil
}

func runSetup(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	season := fs.Int("season", 0, "season year to initialize (required)")
	campusCSV := fs.String("campus-csv", "", "optional campus locations CSV to generate teams.json from")
	overwrite := fs.Bool("overwrite", false, "replace an existing baseline snapshot")
	fs.Parse(args)

	if *season == 0 {
		logger.Errorf("setup: -season is required")
		return exitFailed
	}

	if *campusCSV != "" {
		if code := generateTeams(cfg, *campusCSV); code != exitOK {
			return code
		}
	}

	r, err := newRunner(ctx, cfg, true)
	if err != nil {
		logger.Errorf("setup: %v", err)
		return exitFailed
	}
	if err := r.Setup(ctx, pipeline.SetupOptions{Season: *season, Overwrite: *overwrite}); err != nil {
		logger.Errorf("setup: %v", err)
		return exitFailed
	}
	return exitOK
}

// generateTeams builds teams.json from a campus CSV before the runner loads
// reference data.
func generateTeams(cfg *config.Config, csvPath string) int {
	logger := logging.Logger()

	locs, err := refdata.LoadCampusCSV(csvPath)
	if err != nil {
		logger.Errorf("setup: %v", err)
		return exitFailed
	}
	teams := make([]refdata.Team, 0, len(locs))
	for _, loc := range locs {
		teams = append(teams, refdata.Team{
			ID:        loc.TeamID,
			School:    loc.School,
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
		})
	}
	if err := store.New(cfg.DataDir).WriteTeams(teams); err != nil {
		logger.Errorf("setup: write teams: %v", err)
		return exitFailed
	}
	logger.Infof("generated teams.json with %d teams from %s", len(teams), csvPath)
	return exitOK
}

func runIngest(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	season := fs.Int("season", 0, "season year to fetch (required)")
	seasonType := fs.String("season-type", "both", "regular, postseason, or both")
	maxWeek := fs.Int("max-regular-week", 0, "cap on regular-season weeks (0 = all)")
	dryRun := fs.Bool("dry-run", false, "fetch and report without writing files")
	fs.Parse(args)

	if *season == 0 {
		logger.Errorf("ingest: -season is required")
		return exitFailed
	}

	r, err := newRunner(ctx, cfg, false)
	if err != nil {
		logger.Errorf("ingest: %v", err)
		return exitFailed
	}

	client := cfbd.NewClient(cfbd.Config{
		BaseURL:    cfg.CFBDBaseURL,
		APIKey:     cfg.CFBDAPIKey,
		MaxRetries: cfg.HTTPMaxRetries,
	})
	if cfg.CFBDAPIKey == "" {
		logger.Warnf("cfbd_api_key not set; requests are unauthenticated and rate limits are lower")
	}

	if err := r.Ingest(ctx, client, pipeline.IngestOptions{
		Season:         *season,
		SeasonType:     *seasonType,
		MaxRegularWeek: *maxWeek,
		DryRun:         *dryRun,
	}); err != nil {
		logger.Errorf("ingest: %v", err)
		return exitFailed
	}
	return exitOK
}

func runApply(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	season := fs.Int("season", 0, "season year to process (required)")
	maxWeek := fs.Int("max-week-index", -1, "upper bound on the week index (-1 = all)")
	dryRun := fs.Bool("dry-run", false, "compute changes without writing files")
	verbose := fs.Bool("verbose", false, "log per-week transfer details")
	overwrite := fs.Bool("overwrite", false, "allow rewriting committed snapshots")
	fs.Parse(args)

	if *season == 0 {
		logger.Errorf("apply: -season is required")
		return exitFailed
	}

	r, err := newRunner(ctx, cfg, !*dryRun)
	if err != nil {
		logger.Errorf("apply: %v", err)
		return exitFailed
	}

	out, err := r.ApplyTransfers(ctx, pipeline.ApplyOptions{
		Season:       *season,
		MaxWeekIndex: *maxWeek,
		DryRun:       *dryRun,
		Verbose:      *verbose,
		Overwrite:    *overwrite,
		TopN:         cfg.LeaderboardTopN,
	})
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			logger.Warnf("apply: another run is in progress: %v", err)
		} else {
			logger.Errorf("apply: %v", err)
		}
		return exitFailed
	}
	if len(out.Warnings) > 0 {
		logger.Warnf("apply committed transfers but %d derived view(s) failed", len(out.Warnings))
		return exitPartial
	}
	return exitOK
}

func runOwner(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("owner", flag.ExitOnError)
	season := fs.Int("season", 0, "season year (required)")
	fips := fs.String("fips", "", "county FIPS code (required)")
	weekIndex := fs.Int("week-index", -1, "week index to query (-1 = latest)")
	fs.Parse(args)

	if *season == 0 || *fips == "" {
		logger.Errorf("owner: -season and -fips are required")
		return exitFailed
	}

	r, err := newRunner(ctx, cfg, false)
	if err != nil {
		logger.Errorf("owner: %v", err)
		return exitFailed
	}
	owner, err := r.OwnerAt(ctx, *season, *fips, *weekIndex)
	if err != nil {
		logger.Errorf("owner: %v", err)
		return exitFailed
	}
	fmt.Println(owner)
	return exitOK
}

func runLeaderboards(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("leaderboards", flag.ExitOnError)
	season := fs.Int("season", 0, "season year (required)")
	weekIndex := fs.Int("week-index", -1, "week index to compute (-1 = latest)")
	dryRun := fs.Bool("dry-run", false, "compute without writing files")
	fs.Parse(args)

	if *season == 0 {
		logger.Errorf("leaderboards: -season is required")
		return exitFailed
	}

	r, err := newRunner(ctx, cfg, false)
	if err != nil {
		logger.Errorf("leaderboards: %v", err)
		return exitFailed
	}
	if err := r.Leaderboards(ctx, pipeline.ViewOptions{
		Season:    *season,
		WeekIndex: *weekIndex,
		DryRun:    *dryRun,
		TopN:      cfg.LeaderboardTopN,
	}); err != nil {
		logger.Errorf("leaderboards: %v", err)
		return exitFailed
	}
	return exitOK
}

func runLogos(ctx context.Context, cfg *config.Config, args []string) int {
	logger := logging.Logger()
	fs := flag.NewFlagSet("logos", flag.ExitOnError)
	season := fs.Int("season", 0, "season year (required)")
	weekIndex := fs.Int("week-index", -1, "week index to compute (-1 = latest)")
	dryRun := fs.Bool("dry-run", false, "compute without writing files")
	fs.Parse(args)

	if *season == 0 {
		logger.Errorf("logos: -season is required")
		return exitFailed
	}

	r, err := newRunner(ctx, cfg, false)
	if err != nil {
		logger.Errorf("logos: %v", err)
		return exitFailed
	}
	if err := r.Logos(ctx, pipeline.ViewOptions{
		Season:    *season,
		WeekIndex: *weekIndex,
		DryRun:    *dryRun,
	}); err != nil {
		logger.Errorf("logos: %v", err)
		return exitFailed
	}
	return exitOK
}
