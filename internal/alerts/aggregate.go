package alerts

import (
	"slices"
	"time"

	"transitdash/internal/model"
)

// SeverityRank orders severities for listings: SEVERE 4, WARNING 3, INFO 2,
// UNKNOWN_SEVERITY 1. Values outside the closed set rank as unknown.
func SeverityRank(level model.Severity) int {
	switch level.Normalize() {
	case model.SeveritySevere:
		return 4
	case model.SeverityWarning:
		return 3
	case model.SeverityInfo:
		return 2
	default:
		return 1
	}
}

// FilterActive keeps the alerts whose [start, end] window contains now, in
// input order. Alerts with a malformed start or end are dropped.
func FilterActive(alerts []model.Alert, now time.Time) []model.Alert {
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.Start.Valid() || !a.End.Valid() {
			continue
		}
		if now.Before(a.Start.Time) || now.After(a.End.Time) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func GroupBySeverity(alerts []model.Alert) map[model.Severity][]model.Alert {
	groups := make(map[model.Severity][]model.Alert)
	for _, a := range alerts {
		level := a.SeverityLevel.Normalize()
		groups[level] = append(groups[level], a)
	}
	return groups
}

// CountsBySeverity has a key only for severities present in the input; a
// missing key means zero.
func CountsBySeverity(alerts []model.Alert) map[model.Severity]int {
	groups := GroupBySeverity(alerts)
	counts := make(map[model.Severity]int, len(groups))
	for level, list := range groups {
		counts[level] = len(list)
	}
	return counts
}

// Sort returns a copy ordered by severity rank, most urgent first, then by
// start time, most recent first.
func Sort(alerts []model.Alert) []model.Alert {
	out := slices.Clone(alerts)
	if out == nil {
		out = []model.Alert{}
	}
	slices.SortStableFunc(out, func(a, b model.Alert) int {
		if ra, rb := SeverityRank(a.SeverityLevel), SeverityRank(b.SeverityLevel); ra != rb {
			return rb - ra
		}
		return b.Start.Compare(a.Start.Time)
	})
	return out
}
