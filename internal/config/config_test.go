package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseYAMLOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
upstream:
  base_url: https://stats.example.com/prod
  timeout: 3s
alerts:
  source: FEED
ingest:
  rest:
    enabled: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Upstream.Timeout != 3*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Alerts.Source != AlertSourceFeed {
		t.Fatalf("source not normalized: %q", cfg.Alerts.Source)
	}
	if cfg.Ingest.REST.Addr != ":8082" || cfg.API.Addr != ":8081" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !cfg.Upstream.HTTPClient.FollowRedirects {
		t.Fatalf("expected default http client settings")
	}
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"upstream":{"base_url":"http://127.0.0.1:9000"},"stats":{"high_delay":120}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Stats.HighDelay != 120 || cfg.Alerts.StoreLimit != 1000 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "   ",
		"relative url":   "upstream:\n  base_url: /prod\n",
		"bad source":     "alerts:\n  source: carrier-pigeon\n",
		"feed no ingest": "alerts:\n  source: feed\n",
		"kafka no topic": "ingest:\n  kafka:\n    enabled: true\n    brokers: [localhost:9092]\n",
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestManagerReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transitdash.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if m.Get().LogLevel != "info" {
		t.Fatalf("initial level: %s", m.Get().LogLevel)
	}
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	needs, err := m.NeedsReload()
	if err != nil || !needs {
		t.Fatalf("expected reload needed: %v %v", needs, err)
	}
	cfg, err := m.Reload()
	if err != nil || cfg.LogLevel != "warn" || m.Get().LogLevel != "warn" {
		t.Fatalf("reload: %v %+v", err, cfg)
	}
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(DefaultConfig())
	if needs, err := m.NeedsReload(); needs || err != nil {
		t.Fatalf("static manager should never reload")
	}
	if m.Get().API.Addr != ":8081" {
		t.Fatalf("unexpected config")
	}
}
