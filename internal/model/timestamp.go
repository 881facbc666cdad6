package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// UntilFurtherNotice is the end instant the alert feed uses for open-ended alerts.
var UntilFurtherNotice = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)

// Timestamp is an instant decoded from epoch milliseconds (number or numeric
// string) or from ISO-8601 text. Values that cannot be decoded leave the zero
// time, which callers treat as malformed.
type Timestamp struct {
	time.Time
}

func FromUnixMilli(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

func (t Timestamp) Valid() bool {
	return !t.IsZero()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	t.Time = decodeTimestamp(b)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z0700",
}

func decodeTimestamp(b []byte) time.Time {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return time.Time{}
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return time.Time{}
		}
		ts, err := ParseTimestamp(s)
		if err != nil {
			return time.Time{}
		}
		return ts
	}
	ms, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return time.Time{}
	}
	return fromMillis(ms)
}

// ParseTimestamp accepts epoch milliseconds or one of the ISO-8601 layouts the
// statistics API emits. Layouts without an offset are read as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errEmptyTimestamp
	}
	if ms, err := strconv.ParseFloat(value, 64); err == nil {
		ts := fromMillis(ms)
		if ts.IsZero() {
			return time.Time{}, &TimestampError{Value: value}
		}
		return ts, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, &TimestampError{Value: value}
}

func fromMillis(ms float64) time.Time {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms > math.MaxInt64/1e6 || ms < math.MinInt64/1e6 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms)).UTC()
}
