// Package timeutil converts instants for display, generates time-axis ticks and
// cuts series down to a lookback window. Every function takes "now" explicitly
// and none of them mutate their input.
package timeutil

import (
	"math"
	"time"
	_ "time/tzdata"

	"transitdash/internal/model"
)

const (
	DisplayZone   = "America/Los_Angeles"
	DisplayLayout = "2006-01-02 15:04"
	InvalidDate   = "Invalid date"
)

var displayLoc = mustLoadLocation(DisplayZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("timeutil: load " + name + ": " + err.Error())
	}
	return loc
}

// Timestamped is anything carrying an epoch-millisecond instant.
type Timestamped interface {
	UnixMilli() int64
}

func WindowLength(r model.TimeRange) time.Duration {
	switch r {
	case model.RangeWeek:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func TickSpacing(r model.TimeRange) time.Duration {
	switch r {
	case model.RangeWeek:
		return 24 * time.Hour
	default:
		return 2 * time.Hour
	}
}

// ToLocalDisplay formats an epoch-millisecond instant in DisplayZone. Inputs
// that are not finite, or that fall outside the representable range, yield
// InvalidDate.
func ToLocalDisplay(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return InvalidDate
	}
	if ms > maxMillis || ms < -maxMillis {
		return InvalidDate
	}
	return time.UnixMilli(int64(ms)).In(displayLoc).Format(DisplayLayout)
}

// maxMillis keeps conversions well inside what time.Time can format.
const maxMillis = 8.64e15

func ToLocalDisplayTime(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.In(displayLoc).Format(DisplayLayout)
}

// GenerateTicks returns ascending tick instants (epoch ms) starting at the top
// of the hour at or before now-WindowLength(r) and stepping by TickSpacing(r)
// without passing now.
func GenerateTicks(r model.TimeRange, now time.Time) []int64 {
	start := now.Add(-WindowLength(r)).Truncate(time.Hour)
	step := TickSpacing(r)
	ticks := make([]int64, 0, int(WindowLength(r)/step)+1)
	for t := start; !t.After(now); t = t.Add(step) {
		ticks = append(ticks, t.UnixMilli())
	}
	return ticks
}

// TickLabels formats ticks for the axis.
func TickLabels(ticks []int64) []string {
	out := make([]string, 0, len(ticks))
	for _, t := range ticks {
		out = append(out, ToLocalDisplay(float64(t)))
	}
	return out
}

// FilterByTimeRange keeps, in input order, the points whose instant lies in
// [now-WindowLength(r), now]. Both bounds are inclusive.
func FilterByTimeRange[P Timestamped](series []P, r model.TimeRange, now time.Time) []P {
	hi := now.UnixMilli()
	lo := now.Add(-WindowLength(r)).UnixMilli()
	out := make([]P, 0, len(series))
	for _, p := range series {
		ts := p.UnixMilli()
		if ts < lo || ts > hi {
			continue
		}
		out = append(out, p)
	}
	return out
}
