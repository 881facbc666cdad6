package alerts

import (
	"strings"
	"time"

	"transitdash/internal/model"
	"transitdash/internal/timeutil"
)

type SeverityCount struct {
	Severity model.Severity `json:"severity"`
	Label    string         `json:"label"`
	Count    int            `json:"count"`
}

type Row struct {
	model.Alert
	StartDisplay string `json:"start_display"`
	EndDisplay   string `json:"end_display"`
}

type Summary struct {
	Total  int             `json:"total"`
	Counts []SeverityCount `json:"counts"`
	Alerts []Row           `json:"alerts"`
}

// Summarize builds the alert panel for the alerts active at now.
func Summarize(all []model.Alert, now time.Time) Summary {
	active := FilterActive(all, now)
	counts := CountsBySeverity(active)
	summary := Summary{
		Total:  len(active),
		Counts: make([]SeverityCount, 0, len(counts)),
		Alerts: Rows(Sort(active)),
	}
	for _, level := range model.Severities() {
		n, ok := counts[level]
		if !ok {
			continue
		}
		summary.Counts = append(summary.Counts, SeverityCount{Severity: level, Label: Label(level), Count: n})
	}
	return summary
}

// Rows pairs each alert with display-formatted start and end times.
func Rows(alerts []model.Alert) []Row {
	rows := make([]Row, 0, len(alerts))
	for _, a := range alerts {
		a.SeverityLevel = a.SeverityLevel.Normalize()
		rows = append(rows, Row{
			Alert:        a,
			StartDisplay: timeutil.ToLocalDisplayTime(a.Start.Time),
			EndDisplay:   timeutil.ToLocalDisplayTime(a.End.Time),
		})
	}
	return rows
}

// Label renders a severity for display, e.g. UNKNOWN_SEVERITY as "Unknown Severity".
func Label(level model.Severity) string {
	return TitleCase(string(level.Normalize()))
}

// TitleCase turns SNAKE_CASE identifiers into space separated title case words.
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		w = strings.ToLower(w)
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
