package engine

// OwnerAsOf replays a county's transfer events in log order and returns the
// owner as of the given week index. events must already be filtered to the
// county (and season) in question; the baseline owner is the starting state.
func OwnerAsOf(baselineOwner string, events []TransferEvent, weekIndex int) string {
	owner := baselineOwner
	for _, ev := range events {
		if ev.WeekIndex > weekIndex {
			continue
		}
		owner = ev.ToTeamID
	}
	return owner
}

// ReplayOwnership folds a full season's transfer events over the baseline,
// producing the ownership map as of a week index. Used to cross-check
// committed snapshots against the log.
func ReplayOwnership(baseline map[string]string, events []TransferEvent, weekIndex int) map[string]string {
	ownership := make(map[string]string, len(baseline))
	for fips, teamID := range baseline {
		ownership[fips] = teamID
	}
	for _, ev := range events {
		if ev.WeekIndex > weekIndex {
			continue
		}
		ownership[ev.FIPS] = ev.ToTeamID
	}
	return ownership
}
