package alerts

import (
	"context"
	"testing"

	"transitdash/internal/model"
)

func TestStoreReplacesByID(t *testing.T) {
	s := NewStore(10)
	s.Add(model.Alert{ID: "1", Header: "first"})
	s.Add(model.Alert{ID: "2", Header: "second"})
	s.Add(model.Alert{ID: "1", Header: "first, revised"})
	list := s.List(0)
	if len(list) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(list))
	}
	if list[0].ID != "2" || list[1].Header != "first, revised" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	s := NewStore(2)
	s.Add(model.Alert{ID: "a"})
	s.Add(model.Alert{ID: "b"})
	s.Add(model.Alert{ID: "c"})
	list := s.List(0)
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "c" {
		t.Fatalf("eviction: %+v", list)
	}
	s.Add(model.Alert{ID: "b", Header: "again"})
	list = s.List(0)
	if len(list) != 2 || list[0].ID != "c" || list[1].Header != "again" {
		t.Fatalf("replace after eviction: %+v", list)
	}
}

func TestStoreListLimitAndClear(t *testing.T) {
	s := NewStore(0)
	for _, id := range []string{"a", "b", "c"} {
		s.Add(model.Alert{ID: id})
	}
	if list := s.List(2); len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("limit: %+v", list)
	}
	got, err := s.Alerts(context.Background())
	if err != nil || len(got) != 3 {
		t.Fatalf("Alerts: %v %d", err, len(got))
	}
	if s.UpdatedAt().IsZero() {
		t.Fatalf("expected update time")
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}
