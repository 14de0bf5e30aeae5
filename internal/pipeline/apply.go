package pipeline

import (
	"context"
	"errors"
	"fmt"

	"imperialmap/internal/campus"
	"imperialmap/internal/engine"
	"imperialmap/internal/leaderboard"
	"imperialmap/internal/logging"
	"imperialmap/internal/store"
	"imperialmap/internal/territory"
)

// ApplyOptions controls one apply run.
type ApplyOptions struct {
	Season       int
	MaxWeekIndex int // <0 means no cap
	DryRun       bool
	Verbose      bool
	Overwrite    bool
	TopN         int
}

// ApplyOutcome reports what a run did. Warnings carry the non-critical
// failures (leaderboard/logo steps) that do not fail the run.
type ApplyOutcome struct {
	WeeksProcessed      int
	GamesProcessed      int
	GamesSkipped        int
	GamesInvalid        int
	CountiesTransferred int
	Warnings            []string
}

// ApplyTransfers runs the transfer engine over every ingested week of a
// season, strictly in week-index order, committing one immutable snapshot
// per week plus the transfer events it produced. Re-running is safe: games
// already in the history log replay their logged transfers instead of being
// reprocessed, so recomputed snapshots come out byte-identical and rewrite
// as no-ops.
//
// Snapshot and history writes are the critical path; any error there is
// fatal. The per-week leaderboard and logo artifacts are derived afterwards
// and only ever downgrade to warnings.
func (r *Runner) ApplyTransfers(ctx context.Context, opts ApplyOptions) (ApplyOutcome, error) {
	logger := logging.Logger()
	var out ApplyOutcome

	// 1. Serialize against overlapping runs. A dry run writes nothing and
	// does not take the lease.
	if !opts.DryRun {
		if err := r.lock.Acquire(ctx, opts.Season); err != nil {
			return out, fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := r.lock.Release(context.WithoutCancel(ctx), opts.Season); err != nil {
				logger.Errorf("release run lock: %v", err)
			}
		}()
	}

	// 2. The baseline snapshot is the fixed starting state; setup creates it.
	baseline, err := r.store.ReadSnapshot(opts.Season, 0)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return out, fmt.Errorf("season %d has no baseline snapshot; run setup first", opts.Season)
		}
		return out, fmt.Errorf("read baseline snapshot: %w", err)
	}

	timeline, err := r.store.ReadGamesIndex(opts.Season)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Infof("no games ingested for season %d; baseline snapshot only", opts.Season)
			timeline = store.GamesIndex{Season: opts.Season}
		} else {
			return out, fmt.Errorf("read games index: %w", err)
		}
	}

	logged, err := r.store.TransfersByGame(opts.Season)
	if err != nil {
		return out, fmt.Errorf("load transfer history: %w", err)
	}

	knownTeams := r.knownTeams()
	baselineIdx := campus.BaselineIndex(baseline)
	now := r.now().UTC()

	ownership := territory.CloneOwnership(baseline)
	teamIndex := territory.BuildTeamIndex(ownership)

	seasonWeeks := []store.WeekRef{{
		WeekIndex:  0,
		Week:       0,
		SeasonType: "baseline",
		Label:      fmt.Sprintf("%d Baseline (Preseason)", opts.Season),
		Path:       store.SnapshotPath(opts.Season, 0),
	}}

	// 3. Walk the timeline in week-index order; each week derives from the
	// previous week's state plus that week's games.
	for _, ref := range timeline.Weeks {
		if opts.MaxWeekIndex >= 0 && ref.WeekIndex > opts.MaxWeekIndex {
			break
		}

		games, err := r.store.ReadGames(opts.Season, ref.WeekIndex)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warnf("%s: games file missing, carrying ownership forward", ref.Label)
				games = nil
			} else {
				return out, fmt.Errorf("read games for week %d: %w", ref.WeekIndex, err)
			}
		}

		next := territory.CloneOwnership(ownership)
		res := engine.ApplyWeek(engine.WeekContext{
			Season:     opts.Season,
			WeekIndex:  ref.WeekIndex,
			Week:       ref.Week,
			SeasonType: ref.SeasonType,
		}, games, next, teamIndex, knownTeams, logged, now)

		if opts.Verbose && res.CountiesTransferred() > 0 {
			logger.Infof("%s: %d games moved %d counties", ref.Label, res.GamesProcessed, res.CountiesTransferred())
		}

		out.WeeksProcessed++
		out.GamesProcessed += res.GamesProcessed
		out.GamesSkipped += res.GamesSkipped
		out.GamesInvalid += res.GamesInvalid
		out.CountiesTransferred += res.CountiesTransferred()

		// 4. Commit: snapshot first, then the events that produced it.
		if !opts.DryRun {
			if err := r.store.WriteSnapshot(opts.Season, ref.WeekIndex, next, opts.Overwrite); err != nil {
				return out, fmt.Errorf("write snapshot week %d: %w", ref.WeekIndex, err)
			}
			if err := r.store.AppendTransferEvents(res.Events); err != nil {
				return out, fmt.Errorf("append transfer events week %d: %w", ref.WeekIndex, err)
			}
		}
		for _, ev := range res.Events {
			logged[ev.GameID] = append(logged[ev.GameID], ev)
		}

		seasonWeeks = append(seasonWeeks, store.WeekRef{
			WeekIndex:  ref.WeekIndex,
			Week:       ref.Week,
			SeasonType: ref.SeasonType,
			Label:      ref.Label,
			Path:       store.SnapshotPath(opts.Season, ref.WeekIndex),
		})

		// 5. Best-effort derived views for the committed week.
		if !opts.DryRun {
			if err := r.writeLogos(opts.Season, ref.WeekIndex, baselineIdx, next); err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("logos week %d: %v", ref.WeekIndex, err))
				logger.Warnf("logos week %d failed: %v", ref.WeekIndex, err)
			}
			if err := r.writeLeaderboard(opts.Season, seasonWeeks[len(seasonWeeks)-1], next, ownership, opts.TopN); err != nil {
				out.Warnings = append(out.Warnings, fmt.Sprintf("leaderboard week %d: %v", ref.WeekIndex, err))
				logger.Warnf("leaderboard week %d failed: %v", ref.WeekIndex, err)
			}
		}

		ownership = next
	}

	if !opts.DryRun {
		if err := r.store.UpdateOwnershipIndex(opts.Season, seasonWeeks); err != nil {
			return out, fmt.Errorf("update ownership index: %w", err)
		}
	}

	logger.Infof("applied %d games for season %d; total counties transferred: %d",
		out.GamesProcessed, opts.Season, out.CountiesTransferred)
	if opts.DryRun {
		logger.Infof("dry run enabled; no files were written")
	}
	return out, nil
}

func (r *Runner) writeLogos(season, weekIndex int, baselineIdx map[string][]string, current map[string]string) error {
	payload := campus.Compute(season, weekIndex, baselineIdx, current, r.teams, r.teamsByID, r.now().UTC())
	return r.store.WriteLogos(season, weekIndex, payload)
}

func (r *Runner) writeLeaderboard(season int, ref store.WeekRef, current, previous map[string]string, topN int) error {
	payload := leaderboard.Compute(leaderboard.WeekMeta{
		Season:     season,
		WeekIndex:  ref.WeekIndex,
		Week:       ref.Week,
		SeasonType: ref.SeasonType,
		Label:      ref.Label,
	}, current, previous, r.counties, r.teamsByID, topN, r.now().UTC())
	return r.store.WriteLeaderboard(season, ref, payload)
}
