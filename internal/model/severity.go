package model

import (
	"encoding/json"
	"strings"
)

// Severity is the urgency classification of a service alert.
type Severity string

const (
	SeveritySevere  Severity = "SEVERE"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
	SeverityUnknown Severity = "UNKNOWN_SEVERITY"
)

// Severities lists every severity from most to least urgent.
func Severities() []Severity {
	return []Severity{SeveritySevere, SeverityWarning, SeverityInfo, SeverityUnknown}
}

// ParseSeverity maps any input onto the closed set; anything unrecognized,
// including the empty string, becomes SeverityUnknown.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToUpper(strings.TrimSpace(s))) {
	case SeveritySevere:
		return SeveritySevere
	case SeverityWarning:
		return SeverityWarning
	case SeverityInfo:
		return SeverityInfo
	case SeverityUnknown:
		return SeverityUnknown
	default:
		return SeverityUnknown
	}
}

func (s Severity) Normalize() Severity {
	return ParseSeverity(string(s))
}

func (s *Severity) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		*s = SeverityUnknown
		return nil
	}
	*s = ParseSeverity(raw)
	return nil
}
