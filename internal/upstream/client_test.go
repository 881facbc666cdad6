package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"transitdash/internal/config"
	"transitdash/internal/metrics"
	"transitdash/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.DefaultConfig().Upstream
	cfg.BaseURL = srv.URL + "/prod"
	c, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestRouteStatsOverTime(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prod/route_stats_over_time" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("route_id") != "6641" || r.URL.Query().Get("direction_id") != "1" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"statusCode":200,"body":[
			{"route_id":"6641","direction_id":1,"update_time":"2024-03-14T14:00:00","average_delay":95.5,"vehicle_count":4,"very_late_count":1,"very_early_count":0}
		]}`))
	})
	list, err := c.RouteStatsOverTime(context.Background(), "6641", 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 1 || list[0].RouteID != "6641" || list[0].AverageDelay != 95.5 || list[0].VehicleCount != 4 {
		t.Fatalf("decoded: %+v", list)
	}
	if !list[0].UpdateTime.Equal(time.Date(2024, time.March, 14, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("update_time: %s", list[0].UpdateTime)
	}
}

func TestAlertsDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statusCode":200,"body":[{"header":"Detour","severity_level":"SEVERE","start":1000,"end":5000}]}`))
	})
	list, err := c.Alerts(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 1 || list[0].SeverityLevel != model.SeveritySevere || list[0].End.UnixMilli() != 5000 {
		t.Fatalf("decoded: %+v", list)
	}
}

func TestEnvelopeFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"statusCode":400,"body":"Failure"}`))
	})
	store := metrics.NewStore(0)
	c.WithMetrics(store)
	if _, err := c.StopStats(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	fs, ok := store.Get("/stop_stats")
	if !ok || fs.Requests != 1 || fs.Failures != 1 || fs.LastStatus != 400 {
		t.Fatalf("metrics: %+v", fs)
	}
}

func TestHTTPFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := c.Routes(context.Background()); !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestNullBodyIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("stop_id") != "50001" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"statusCode":200,"body":null}`))
	})
	list, err := c.StopUpdates(context.Background(), "50001")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
}

func TestNewRejectsRelativeURL(t *testing.T) {
	cfg := config.DefaultConfig().Upstream
	cfg.BaseURL = "/prod"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error")
	}
}
