package ingest

import (
	"testing"
	"time"

	"transitdash/internal/model"
)

const feedEntity1 = `{"id":"7716","alert":{
	"activePeriod":[{"start":"1710428400","end":1710450000}],
	"cause":"CONSTRUCTION","effect":"DETOUR","severityLevel":"WARNING",
	"headerText":{"translation":[{"text":"Détour","language":"fr"},{"text":"Detour on Main St","language":"en"}]},
	"descriptionText":{"translation":[{"text":"Buses use Quebec St","language":"en"}]}}}`

func TestParseEntityMapsFields(t *testing.T) {
	a, err := ParseEntity([]byte(feedEntity1))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.ID != "7716" || a.Header != "Detour on Main St" || a.Description != "Buses use Quebec St" {
		t.Fatalf("text fields: %+v", a)
	}
	if a.SeverityLevel != model.SeverityWarning || a.Cause != "CONSTRUCTION" || a.Effect != "DETOUR" {
		t.Fatalf("enum fields: %+v", a)
	}
	if !a.Start.Equal(time.Unix(1710428400, 0)) || !a.End.Equal(time.Unix(1710450000, 0)) {
		t.Fatalf("period: %s - %s", a.Start, a.End)
	}
}

func TestParseEntityDefaults(t *testing.T) {
	a, err := ParseEntity([]byte(`{"id":"1","alert":{"headerText":{"translation":[{"text":"Hinweis","language":"de"}]}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !a.Start.Equal(time.Unix(0, 0)) || !a.End.Equal(model.UntilFurtherNotice) {
		t.Fatalf("default period: %s - %s", a.Start, a.End)
	}
	if a.SeverityLevel != model.SeverityUnknown || a.Cause != "UNKNOWN_CAUSE" || a.Effect != "UNKNOWN_EFFECT" {
		t.Fatalf("defaults: %+v", a)
	}
	if a.Header != "Hinweis" || a.Description != "" {
		t.Fatalf("translation fallback: %+v", a)
	}
}

func TestParseFeedArrayOfStrings(t *testing.T) {
	payload := `["{\"id\":\"a\",\"alert\":{\"severityLevel\":\"SEVERE\"}}", {"id":"b","alert":{}}, {"id":"c"}, 42]`
	list, failed, err := ParseFeed([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(list) != 2 || failed != 2 {
		t.Fatalf("got %d alerts, %d failed", len(list), failed)
	}
	if list[0].ID != "a" || list[0].SeverityLevel != model.SeveritySevere {
		t.Fatalf("first alert: %+v", list[0])
	}
}

func TestParseFeedRejectsEmpty(t *testing.T) {
	if _, _, err := ParseFeed([]byte("  ")); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, _, err := ParseFeed([]byte("[oops")); err == nil {
		t.Fatalf("expected error for broken array")
	}
}
