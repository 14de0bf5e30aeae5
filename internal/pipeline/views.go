package pipeline

import (
	"context"
	"fmt"

	"imperialmap/internal/campus"
	"imperialmap/internal/engine"
	"imperialmap/internal/leaderboard"
	"imperialmap/internal/logging"
	"imperialmap/internal/store"
)

// ViewOptions selects the week a derived view targets.
type ViewOptions struct {
	Season    int
	WeekIndex int // <0 means latest committed week
	DryRun    bool
	TopN      int
}

// resolveWeek picks the target week ref, defaulting to the latest.
func (r *Runner) resolveWeek(opts ViewOptions) (store.WeekRef, error) {
	if opts.WeekIndex < 0 {
		return r.store.LatestWeek(opts.Season)
	}
	weeks, err := r.store.ListWeeks(opts.Season)
	if err != nil {
		return store.WeekRef{}, err
	}
	for _, w := range weeks {
		if w.WeekIndex == opts.WeekIndex {
			return w, nil
		}
	}
	return store.WeekRef{}, fmt.Errorf("week index %d not committed for season %d: %w",
		opts.WeekIndex, opts.Season, store.ErrNotFound)
}

// Leaderboards recomputes the leaderboard artifact for one committed week.
// Reads only committed snapshots, so it can run independently of apply.
func (r *Runner) Leaderboards(_ context.Context, opts ViewOptions) error {
	logger := logging.Logger()

	ref, err := r.resolveWeek(opts)
	if err != nil {
		return err
	}

	current, err := r.store.ReadSnapshot(opts.Season, ref.WeekIndex)
	if err != nil {
		return fmt.Errorf("read snapshot week %d: %w", ref.WeekIndex, err)
	}
	previous := current
	if ref.WeekIndex > 0 {
		previous, err = r.store.ReadSnapshot(opts.Season, previousWeekIndex(r.store, opts.Season, ref.WeekIndex))
		if err != nil {
			return fmt.Errorf("read previous snapshot: %w", err)
		}
	}

	payload := leaderboard.Compute(leaderboard.WeekMeta{
		Season:     opts.Season,
		WeekIndex:  ref.WeekIndex,
		Week:       ref.Week,
		SeasonType: ref.SeasonType,
		Label:      ref.Label,
	}, current, previous, r.counties, r.teamsByID, opts.TopN, r.now().UTC())

	if opts.DryRun {
		logger.Infof("computed leaderboards for season %d week %d (%s): %d tracked teams",
			opts.Season, ref.WeekIndex, ref.Label, payload.Totals.TrackedTeams)
		return nil
	}
	if err := r.store.WriteLeaderboard(opts.Season, ref, payload); err != nil {
		return err
	}
	logger.Infof("saved leaderboards for season %d week %02d", opts.Season, ref.WeekIndex)
	return nil
}

// Logos recomputes the campus-majority logo artifact for one committed week.
func (r *Runner) Logos(_ context.Context, opts ViewOptions) error {
	logger := logging.Logger()

	ref, err := r.resolveWeek(opts)
	if err != nil {
		return err
	}

	baseline, err := r.store.ReadSnapshot(opts.Season, 0)
	if err != nil {
		return fmt.Errorf("read baseline snapshot: %w", err)
	}
	current, err := r.store.ReadSnapshot(opts.Season, ref.WeekIndex)
	if err != nil {
		return fmt.Errorf("read snapshot week %d: %w", ref.WeekIndex, err)
	}

	payload := campus.Compute(opts.Season, ref.WeekIndex, campus.BaselineIndex(baseline),
		current, r.teams, r.teamsByID, r.now().UTC())

	if opts.DryRun {
		logger.Infof("computed %d campus logo entries for season %d week %d",
			len(payload.Logos), opts.Season, ref.WeekIndex)
		return nil
	}
	if err := r.store.WriteLogos(opts.Season, ref.WeekIndex, payload); err != nil {
		return err
	}
	logger.Infof("saved campus logos for season %d week %02d", opts.Season, ref.WeekIndex)
	return nil
}

// OwnerAt answers "who owned this county as of week W" by replaying the
// county's transfer events over the baseline. weekIndex < 0 means the latest
// committed week.
func (r *Runner) OwnerAt(_ context.Context, season int, fips string, weekIndex int) (string, error) {
	if weekIndex < 0 {
		ref, err := r.store.LatestWeek(season)
		if err != nil {
			return "", err
		}
		weekIndex = ref.WeekIndex
	}

	baseline, err := r.store.ReadSnapshot(season, 0)
	if err != nil {
		return "", fmt.Errorf("read baseline snapshot: %w", err)
	}
	baseOwner, ok := baseline[fips]
	if !ok {
		return "", fmt.Errorf("county %s is not in the season %d baseline", fips, season)
	}

	events, err := r.store.TransfersForCounty(season, fips)
	if err != nil {
		return "", err
	}
	return engine.OwnerAsOf(baseOwner, events, weekIndex), nil
}

// previousWeekIndex finds the committed week index immediately before target.
// Week indexes are normally contiguous, but a capped apply can leave gaps in
// what exists versus what was ingested, so walk the index rather than
// assuming target-1.
func previousWeekIndex(st *store.Store, season, target int) int {
	weeks, err := st.ListWeeks(season)
	if err != nil {
		return target - 1
	}
	prev := 0
	for _, w := range weeks {
		if w.WeekIndex < target && w.WeekIndex > prev {
			prev = w.WeekIndex
		}
	}
	return prev
}
