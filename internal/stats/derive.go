// Package stats derives display values from delay statistics: delays in
// minutes, very early and very late percentages, and chart series.
package stats

import (
	"math"

	"transitdash/internal/model"
)

// DefaultHighDelay is how far, in seconds, a vehicle must deviate from
// schedule to count as very early or very late.
const DefaultHighDelay = 300

type Derived struct {
	AverageDelayMinutes float64 `json:"average_delay_minutes"`
	MedianDelayMinutes  float64 `json:"median_delay_minutes"`
	VeryEarlyPercentage float64 `json:"very_early_percentage"`
	VeryLatePercentage  float64 `json:"very_late_percentage"`
}

type RouteRow struct {
	model.RouteStat
	Derived
}

type StopRow struct {
	model.StopStat
	Derived
}

// Derive prefers percentages the producer already computed and otherwise
// computes them from the raw counts over total. A non-positive total yields 0.
func Derive(d model.DelayStats, total int) Derived {
	return Derived{
		AverageDelayMinutes: Minutes(d.AverageDelay),
		MedianDelayMinutes:  Minutes(d.MedianDelay),
		VeryEarlyPercentage: pick(d.VeryEarlyPercentage, d.VeryEarlyCount, total),
		VeryLatePercentage:  pick(d.VeryLatePercentage, d.VeryLateCount, total),
	}
}

func pick(given *float64, count, total int) float64 {
	if given != nil && !math.IsNaN(*given) && !math.IsInf(*given, 0) {
		return round1(*given)
	}
	return Percentage(count, total)
}

func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round1(float64(count) / float64(total) * 100)
}

func Minutes(seconds float64) float64 {
	return round1(seconds / 60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func DeriveRoutes(list []model.RouteStat) []RouteRow {
	out := make([]RouteRow, 0, len(list))
	for _, r := range list {
		out = append(out, RouteRow{RouteStat: r, Derived: Derive(r.DelayStats, r.VehicleCount)})
	}
	return out
}

func DeriveStops(list []model.StopStat) []StopRow {
	out := make([]StopRow, 0, len(list))
	for _, s := range list {
		out = append(out, StopRow{StopStat: s, Derived: Derive(s.DelayStats, s.StopCount)})
	}
	return out
}

// Lateness is a vehicle delay in whole minutes for the detail tables.
type Lateness struct {
	model.VehicleUpdate
	LatenessMinutes int  `json:"lateness_minutes"`
	VeryLate        bool `json:"very_late"`
	VeryEarly       bool `json:"very_early"`
}

func VehicleRows(list []model.VehicleUpdate, highDelay float64) []Lateness {
	if highDelay <= 0 {
		highDelay = DefaultHighDelay
	}
	out := make([]Lateness, 0, len(list))
	for _, v := range list {
		out = append(out, Lateness{
			VehicleUpdate:   v,
			LatenessMinutes: int(math.Round(v.Delay / 60)),
			VeryLate:        v.Delay > highDelay,
			VeryEarly:       v.Delay < -highDelay,
		})
	}
	return out
}
