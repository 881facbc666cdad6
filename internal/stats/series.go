package stats

import (
	"time"

	"transitdash/internal/model"
	"transitdash/internal/timeutil"
)

// Series is everything one delay chart needs for a selected range.
type Series struct {
	Range        model.TimeRange         `json:"range"`
	Ticks        []int64                 `json:"ticks"`
	TickLabels   []string                `json:"tick_labels"`
	AverageDelay []model.TimeSeriesPoint `json:"average_delay"`
	VeryLate     []model.TimeSeriesPoint `json:"very_late"`
	VeryEarly    []model.TimeSeriesPoint `json:"very_early"`
}

type sample struct {
	stats model.DelayStats
	total int
}

func (s sample) UnixMilli() int64 {
	return s.stats.UnixMilli()
}

func RouteSeries(list []model.RouteStat, r model.TimeRange, now time.Time) Series {
	samples := make([]sample, 0, len(list))
	for _, s := range list {
		samples = append(samples, sample{stats: s.DelayStats, total: s.VehicleCount})
	}
	return buildSeries(samples, r, now)
}

func StopSeries(list []model.StopStat, r model.TimeRange, now time.Time) Series {
	samples := make([]sample, 0, len(list))
	for _, s := range list {
		samples = append(samples, sample{stats: s.DelayStats, total: s.StopCount})
	}
	return buildSeries(samples, r, now)
}

func buildSeries(samples []sample, r model.TimeRange, now time.Time) Series {
	ticks := timeutil.GenerateTicks(r, now)
	kept := timeutil.FilterByTimeRange(samples, r, now)
	out := Series{
		Range:        r,
		Ticks:        ticks,
		TickLabels:   timeutil.TickLabels(ticks),
		AverageDelay: make([]model.TimeSeriesPoint, 0, len(kept)),
		VeryLate:     make([]model.TimeSeriesPoint, 0, len(kept)),
		VeryEarly:    make([]model.TimeSeriesPoint, 0, len(kept)),
	}
	for _, s := range kept {
		ts := s.UnixMilli()
		d := Derive(s.stats, s.total)
		lateCount, earlyCount := s.stats.VeryLateCount, s.stats.VeryEarlyCount
		out.AverageDelay = append(out.AverageDelay, model.TimeSeriesPoint{Timestamp: ts, Value: d.AverageDelayMinutes})
		out.VeryLate = append(out.VeryLate, model.TimeSeriesPoint{Timestamp: ts, Value: d.VeryLatePercentage, Count: &lateCount})
		out.VeryEarly = append(out.VeryEarly, model.TimeSeriesPoint{Timestamp: ts, Value: d.VeryEarlyPercentage, Count: &earlyCount})
	}
	return out
}
