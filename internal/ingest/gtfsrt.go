package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"transitdash/internal/model"
)

var (
	errNoAlert   = errors.New("feed entity has no alert")
	errEmptyFeed = errors.New("empty feed payload")
)

type feedEntity struct {
	ID    string     `json:"id"`
	Alert *feedAlert `json:"alert"`
}

type feedAlert struct {
	ActivePeriod    []timeRange    `json:"activePeriod"`
	Cause           string         `json:"cause"`
	Effect          string         `json:"effect"`
	HeaderText      translatedText `json:"headerText"`
	DescriptionText translatedText `json:"descriptionText"`
	SeverityLevel   model.Severity `json:"severityLevel"`
}

type timeRange struct {
	Start *epochSeconds `json:"start"`
	End   *epochSeconds `json:"end"`
}

type translatedText struct {
	Translation []translation `json:"translation"`
}

type translation struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// epochSeconds accepts the uint64 seconds of a GTFS-realtime TimeRange either
// as a JSON number or as the decimal string protobuf JSON uses for 64-bit ints.
type epochSeconds int64

func (e *epochSeconds) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("epoch seconds %q: %w", s, err)
	}
	*e = epochSeconds(v)
	return nil
}

// English returns the English translation, falling back to the first one.
func (t translatedText) English() string {
	for _, tr := range t.Translation {
		if strings.EqualFold(tr.Language, "en") {
			return tr.Text
		}
	}
	if len(t.Translation) > 0 {
		return t.Translation[0].Text
	}
	return ""
}

// ParseFeed decodes one entity or an array of entities. Array items may be
// objects or JSON-encoded strings of objects. Entities that fail to decode are
// counted in failed and skipped.
func ParseFeed(data []byte) (out []model.Alert, failed int, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, errEmptyFeed
	}
	if data[0] != '[' {
		a, err := ParseEntity(data)
		if err != nil {
			return nil, 1, err
		}
		return []model.Alert{a}, 0, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, 0, err
	}
	out = make([]model.Alert, 0, len(items))
	for _, item := range items {
		a, err := ParseEntity(item)
		if err != nil {
			failed++
			continue
		}
		out = append(out, a)
	}
	return out, failed, nil
}

func ParseEntity(raw []byte) (model.Alert, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return model.Alert{}, err
		}
		raw = []byte(inner)
	}
	var ent feedEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return model.Alert{}, err
	}
	if ent.Alert == nil {
		return model.Alert{}, errNoAlert
	}
	fa := ent.Alert
	start := time.Unix(0, 0).UTC()
	end := model.UntilFurtherNotice
	if len(fa.ActivePeriod) > 0 {
		if p := fa.ActivePeriod[0].Start; p != nil {
			start = time.Unix(int64(*p), 0).UTC()
		}
		if p := fa.ActivePeriod[0].End; p != nil {
			end = time.Unix(int64(*p), 0).UTC()
		}
	}
	return model.Alert{
		ID:            ent.ID,
		Header:        fa.HeaderText.English(),
		SeverityLevel: fa.SeverityLevel.Normalize(),
		Cause:         orDefault(fa.Cause, "UNKNOWN_CAUSE"),
		Effect:        orDefault(fa.Effect, "UNKNOWN_EFFECT"),
		Start:         model.Timestamp{Time: start},
		End:           model.Timestamp{Time: end},
		Description:   fa.DescriptionText.English(),
	}, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
