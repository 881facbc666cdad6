package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

type TimeRange int

const (
	RangeDay TimeRange = iota
	RangeWeek
)

func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day":
		return RangeDay, nil
	case "week":
		return RangeWeek, nil
	default:
		return RangeDay, fmt.Errorf("unknown time range %q", s)
	}
}

func (r TimeRange) String() string {
	switch r {
	case RangeWeek:
		return "week"
	default:
		return "day"
	}
}

func (r TimeRange) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// TimeSeriesPoint is one chart sample. Percentage and Count are optional
// secondary values carried alongside Value.
type TimeSeriesPoint struct {
	Timestamp  int64    `json:"timestamp"`
	Value      float64  `json:"value"`
	Percentage *float64 `json:"percentage,omitempty"`
	Count      *int     `json:"count,omitempty"`
}

func (p TimeSeriesPoint) UnixMilli() int64 {
	return p.Timestamp
}

type Alert struct {
	ID            string    `json:"id,omitempty"`
	Header        string    `json:"header"`
	SeverityLevel Severity  `json:"severity_level"`
	Cause         string    `json:"cause"`
	Effect        string    `json:"effect"`
	Start         Timestamp `json:"start"`
	End           Timestamp `json:"end"`
	Description   string    `json:"description"`
}

// UnmarshalJSON accepts both severity_level and severityLevel and always
// leaves a severity from the closed set.
func (a *Alert) UnmarshalJSON(b []byte) error {
	type plain Alert
	aux := struct {
		*plain
		SeverityCamel *Severity `json:"severityLevel"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if a.SeverityLevel == "" && aux.SeverityCamel != nil {
		a.SeverityLevel = *aux.SeverityCamel
	}
	a.SeverityLevel = a.SeverityLevel.Normalize()
	return nil
}

type Route struct {
	RouteID        string `json:"route_id"`
	DirectionID    int    `json:"direction_id"`
	RouteShortName string `json:"route_short_name,omitempty"`
	RouteLongName  string `json:"route_long_name,omitempty"`
	DirectionName  string `json:"direction_name,omitempty"`
	RouteType      int    `json:"route_type,omitempty"`
}

// DelayStats is the snapshot shared by route and stop statistics. Delays are
// in seconds. The percentage fields are only set when the producer
// pre-computed them.
type DelayStats struct {
	UpdateTime          Timestamp `json:"update_time"`
	AverageDelay        float64   `json:"average_delay"`
	MedianDelay         float64   `json:"median_delay"`
	VeryEarlyCount      int       `json:"very_early_count"`
	VeryLateCount       int       `json:"very_late_count"`
	VeryEarlyPercentage *float64  `json:"very_early_percentage,omitempty"`
	VeryLatePercentage  *float64  `json:"very_late_percentage,omitempty"`
}

func (d DelayStats) UnixMilli() int64 {
	if !d.UpdateTime.Valid() {
		return minMillis
	}
	return d.UpdateTime.UnixMilli()
}

// minMillis sorts malformed instants before any real window.
const minMillis = -1 << 63

type RouteStat struct {
	Route
	DelayStats
	Direction    string `json:"direction,omitempty"`
	VehicleCount int    `json:"vehicle_count"`
}

type StopStat struct {
	DelayStats
	StopID             string  `json:"stop_id"`
	StopCode           string  `json:"stop_code,omitempty"`
	StopName           string  `json:"stop_name,omitempty"`
	ZoneID             string  `json:"zone_id,omitempty"`
	Latitude           float64 `json:"latitude,omitempty"`
	Longitude          float64 `json:"longitude,omitempty"`
	WheelchairBoarding int     `json:"wheelchair_boarding,omitempty"`
	StopCount          int     `json:"stop_count"`
}

// VehicleUpdate is a per-vehicle record from either the route vehicle feed or
// the stop update feed; Delay is in seconds.
type VehicleUpdate struct {
	RouteID         string    `json:"route_id"`
	DirectionID     int       `json:"direction_id"`
	RouteShortName  string    `json:"route_short_name,omitempty"`
	DirectionName   string    `json:"direction_name,omitempty"`
	TripID          string    `json:"trip_id"`
	StopID          string    `json:"stop_id"`
	StopSequence    int       `json:"stop_sequence,omitempty"`
	VehicleID       string    `json:"vehicle_id,omitempty"`
	VehicleLabel    string    `json:"vehicle_label"`
	UpdateTime      Timestamp `json:"update_time"`
	ExpectedArrival Timestamp `json:"expected_arrival,omitzero"`
	StopTime        Timestamp `json:"stop_time,omitzero"`
	Delay           float64   `json:"delay"`
}
