// Package pipeline orchestrates the batch run: lock, read reference data,
// walk the week timeline through the transfer engine, commit snapshots and
// history, then derive the best-effort views.
package pipeline

import (
	"time"

	"imperialmap/internal/refdata"
	"imperialmap/internal/runlock"
	"imperialmap/internal/store"
)

// Runner wires the store, the run lock, and reference data for one process.
type Runner struct {
	store     *store.Store
	lock      runlock.Lock
	teams     []refdata.Team
	teamsByID map[string]refdata.Team
	counties  map[string]refdata.County
	now       func() time.Time
}

// NewRunner builds a Runner. lock may be nil for subcommands that never
// write snapshots (leaderboards, logos).
func NewRunner(st *store.Store, lock runlock.Lock, teams []refdata.Team, byID map[string]refdata.Team, counties map[string]refdata.County) *Runner {
	return &Runner{
		store:     st,
		lock:      lock,
		teams:     teams,
		teamsByID: byID,
		counties:  counties,
		now:       time.Now,
	}
}

func (r *Runner) knownTeams() map[string]bool {
	known := make(map[string]bool, len(r.teamsByID))
	for id := range r.teamsByID {
		known[id] = true
	}
	return known
}
