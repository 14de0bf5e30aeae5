package pipeline

import (
	"context"
	"errors"
	"fmt"

	"imperialmap/internal/logging"
	"imperialmap/internal/store"
	"imperialmap/internal/territory"
)

// SetupOptions controls baseline creation.
type SetupOptions struct {
	Season    int
	Overwrite bool
}

// Setup assigns every county to its nearest campus and commits the result
// as the season's immutable week-00 baseline snapshot. The baseline is
// created exactly once; a re-run with identical reference data is a no-op
// and anything else requires an explicit overwrite.
func (r *Runner) Setup(ctx context.Context, opts SetupOptions) error {
	logger := logging.Logger()

	if err := r.lock.Acquire(ctx, opts.Season); err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), opts.Season); err != nil {
			logger.Errorf("release run lock: %v", err)
		}
	}()

	campuses := territory.CampusesFromTeams(r.teams)
	baseline, err := territory.AssignBaseline(r.counties, campuses)
	if err != nil {
		return fmt.Errorf("assign baseline: %w", err)
	}

	if err := r.store.WriteSnapshot(opts.Season, 0, baseline, opts.Overwrite); err != nil {
		if errors.Is(err, store.ErrSnapshotExists) {
			return fmt.Errorf("baseline for season %d already committed; pass overwrite to replace it: %w", opts.Season, err)
		}
		return fmt.Errorf("write baseline snapshot: %w", err)
	}

	baselineRef := store.WeekRef{
		WeekIndex:  0,
		Week:       0,
		SeasonType: "baseline",
		Label:      fmt.Sprintf("%d Baseline (Preseason)", opts.Season),
		Path:       store.SnapshotPath(opts.Season, 0),
	}

	// Preserve any already-committed weeks when re-running setup.
	weeks, err := r.store.ListWeeks(opts.Season)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("list committed weeks: %w", err)
	}
	merged := []store.WeekRef{baselineRef}
	for _, w := range weeks {
		if w.WeekIndex != 0 {
			merged = append(merged, w)
		}
	}
	if err := r.store.UpdateOwnershipIndex(opts.Season, merged); err != nil {
		return fmt.Errorf("update ownership index: %w", err)
	}

	logger.Infof("baseline committed: %d counties across %d campuses for season %d",
		len(baseline), len(campuses), opts.Season)
	return nil
}
