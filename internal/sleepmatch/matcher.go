// Package sleepmatch implements the Sleep Session Matcher (§4.2): it
// partitions a heterogeneous set of canonical sleep records into maximal
// groups representing the same sleep period, with the invariant that no
// group contains two records from the same source.
package sleepmatch

import (
	"sort"
	"time"

	"github.com/claude/vitalfusion/internal/canonical"
	"github.com/claude/vitalfusion/internal/fusionconfig"
)

// Match clusters sessions into match groups using the anchor-greedy
// algorithm: sort by sleep_start (records lacking a start time sort
// first), then for each unassigned record seed a new group and add any
// remaining unassigned record whose source isn't already represented and
// which satisfies the same-sleep predicate against the anchor.
//
// This is not symmetric-transitive in principle — a stable deterministic
// anchoring rather than full clique detection — but in practice sensors
// tracking the same night produce start times within tens of minutes, so
// alternative anchorings never arise.
func Match(sessions []canonical.SleepRecord, cfg fusionconfig.SleepMatchingConfig) []canonical.SleepMatchGroup {
	ordered := make([]canonical.SleepRecord, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		ki, kj := sortKey(ordered[i]), sortKey(ordered[j])
		if !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return ordered[i].Source < ordered[j].Source
	})

	assigned := make([]bool, len(ordered))
	var groups []canonical.SleepMatchGroup

	for i := range ordered {
		if assigned[i] {
			continue
		}
		anchor := ordered[i]
		assigned[i] = true
		group := []canonical.SleepRecord{anchor}
		groupSources := map[string]bool{anchor.Source: true}

		for j := i + 1; j < len(ordered); j++ {
			if assigned[j] {
				continue
			}
			candidate := ordered[j]
			if groupSources[candidate.Source] {
				continue
			}
			if sameSleep(anchor, candidate, cfg) {
				group = append(group, candidate)
				groupSources[candidate.Source] = true
				assigned[j] = true
			}
		}

		groups = append(groups, canonical.SleepMatchGroup{
			Records:       group,
			MinOverlapPct: minPairwiseOverlapPct(group),
		})
	}

	return groups
}

// MatchForDate pre-filters sessions to a single sleep_date before matching.
func MatchForDate(sessions []canonical.SleepRecord, date time.Time, cfg fusionconfig.SleepMatchingConfig) []canonical.SleepMatchGroup {
	var filtered []canonical.SleepRecord
	for _, s := range sessions {
		if sameDate(s.SleepDate, date) {
			filtered = append(filtered, s)
		}
	}
	return Match(filtered, cfg)
}

// SelectPrimary returns the group member with the highest configured
// weight for the given metric (used by the fusion engine to pick timing
// and hypnogram authority, typically weighted for "sleep_duration").
func SelectPrimary(group canonical.SleepMatchGroup, weightOf func(source string) float64) canonical.SleepRecord {
	best := group.Records[0]
	bestWeight := weightOf(best.Source)
	for _, r := range group.Records[1:] {
		if w := weightOf(r.Source); w > bestWeight {
			best = r
			bestWeight = w
		}
	}
	return best
}

// EstimateSleepDateFromStart infers the wake-morning calendar date a sleep
// period belongs to from its start time alone: a start hour at or after
// cutoffHour belongs to the following date; otherwise the same date. Used
// by upstream ingestion — matching itself uses the date already stored on
// each record.
func EstimateSleepDateFromStart(start time.Time, cutoffHour int) time.Time {
	d := dateOnly(start)
	if start.Hour() >= cutoffHour {
		return d.AddDate(0, 0, 1)
	}
	return d
}

func sortKey(r canonical.SleepRecord) time.Time {
	if r.SleepStart != nil {
		return *r.SleepStart
	}
	return time.Time{}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameSleep(a, b canonical.SleepRecord, cfg fusionconfig.SleepMatchingConfig) bool {
	aHasTiming := a.SleepStart != nil || a.SleepEnd != nil
	bHasTiming := b.SleepStart != nil || b.SleepEnd != nil
	if !aHasTiming || !bHasTiming {
		return sameDate(a.SleepDate, b.SleepDate)
	}

	if a.SleepStart != nil && b.SleepStart != nil {
		diff := a.SleepStart.Sub(*b.SleepStart)
		if diff < 0 {
			diff = -diff
		}
		if diff.Minutes() <= cfg.MaxStartDiffMinutes {
			return true
		}
	}

	overlap := overlapSeconds(a, b)
	shorter := shorterDurationSeconds(a, b)
	if shorter <= 0 {
		return false
	}
	return (overlap/shorter)*100 >= cfg.MinOverlapPct
}

func overlapSeconds(a, b canonical.SleepRecord) float64 {
	if a.SleepStart == nil || a.SleepEnd == nil || b.SleepStart == nil || b.SleepEnd == nil {
		return 0
	}
	start := a.SleepStart
	if b.SleepStart.After(*start) {
		start = b.SleepStart
	}
	end := a.SleepEnd
	if b.SleepEnd.Before(*end) {
		end = b.SleepEnd
	}
	secs := end.Sub(*start).Seconds()
	if secs < 0 {
		return 0
	}
	return secs
}

func durationSeconds(r canonical.SleepRecord) float64 {
	if r.SleepStart != nil && r.SleepEnd != nil {
		secs := r.SleepEnd.Sub(*r.SleepStart).Seconds()
		if secs < 0 {
			return 0
		}
		return secs
	}
	if r.TotalSleepMinutes != nil {
		return *r.TotalSleepMinutes * 60
	}
	return 0
}

func shorterDurationSeconds(a, b canonical.SleepRecord) float64 {
	da, db := durationSeconds(a), durationSeconds(b)
	if da < db {
		return da
	}
	return db
}

func minPairwiseOverlapPct(group []canonical.SleepRecord) float64 {
	if len(group) <= 1 {
		return 100
	}
	min := 100.0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			shorter := shorterDurationSeconds(group[i], group[j])
			if shorter <= 0 {
				min = 0
				continue
			}
			pct := (overlapSeconds(group[i], group[j]) / shorter) * 100
			if pct < min {
				min = pct
			}
		}
	}
	return min
}
