package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	promconfig "github.com/prometheus/common/config"
	"gopkg.in/yaml.v3"
)

const (
	AlertSourceUpstream = "upstream"
	AlertSourceFeed     = "feed"
)

type Config struct {
	LogLevel  string         `json:"log_level" yaml:"log_level"`
	LogFormat string         `json:"log_format" yaml:"log_format"`
	API       APIConfig      `json:"api" yaml:"api"`
	Upstream  UpstreamConfig `json:"upstream" yaml:"upstream"`
	Alerts    AlertsConfig   `json:"alerts" yaml:"alerts"`
	Ingest    IngestConfig   `json:"ingest" yaml:"ingest"`
	Stats     StatsConfig    `json:"stats" yaml:"stats"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type UpstreamConfig struct {
	BaseURL    string                      `json:"base_url" yaml:"base_url"`
	Timeout    time.Duration               `json:"timeout" yaml:"timeout"`
	HTTPClient promconfig.HTTPClientConfig `json:"http_client" yaml:"http_client"`
}

type AlertsConfig struct {
	Source     string `json:"source" yaml:"source"`
	StoreLimit int    `json:"store_limit" yaml:"store_limit"`
}

type IngestConfig struct {
	ChannelBuffer int         `json:"channel_buffer" yaml:"channel_buffer"`
	REST          RESTConfig  `json:"rest" yaml:"rest"`
	Kafka         KafkaConfig `json:"kafka" yaml:"kafka"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type StatsConfig struct {
	// HighDelay is the deviation in seconds past which a vehicle counts as
	// very early or very late.
	HighDelay float64 `json:"high_delay" yaml:"high_delay"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		API:       APIConfig{Enabled: true, Addr: ":8081"},
		Upstream: UpstreamConfig{
			BaseURL:    "http://localhost:9090",
			Timeout:    10 * time.Second,
			HTTPClient: promconfig.DefaultHTTPClientConfig,
		},
		Alerts: AlertsConfig{Source: AlertSourceUpstream, StoreLimit: 1000},
		Ingest: IngestConfig{
			ChannelBuffer: 1000,
			REST:          RESTConfig{Enabled: false, Addr: ":8082"},
			Kafka:         KafkaConfig{Enabled: false},
		},
		Stats: StatsConfig{HighDelay: 300},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(content)
}

// Parse decodes JSON or YAML on top of DefaultConfig, then validates.
func Parse(content []byte) (*Config, error) {
	cfg := DefaultConfig()
	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 1000
	}
	if cfg.Alerts.Source == "" {
		cfg.Alerts.Source = AlertSourceUpstream
	}
	cfg.Alerts.Source = strings.ToLower(strings.TrimSpace(cfg.Alerts.Source))
	if cfg.Ingest.ChannelBuffer <= 0 {
		cfg.Ingest.ChannelBuffer = 1000
	}
	if cfg.Upstream.Timeout <= 0 {
		cfg.Upstream.Timeout = 10 * time.Second
	}
	if cfg.Stats.HighDelay <= 0 {
		cfg.Stats.HighDelay = 300
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
}

func Validate(cfg *Config) error {
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url required")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL: %q", cfg.Upstream.BaseURL)
	}
	if err := cfg.Upstream.HTTPClient.Validate(); err != nil {
		return fmt.Errorf("upstream.http_client: %w", err)
	}
	switch cfg.Alerts.Source {
	case AlertSourceUpstream:
	case AlertSourceFeed:
		if !cfg.Ingest.REST.Enabled && !cfg.Ingest.Kafka.Enabled {
			return errors.New("alerts.source feed requires ingest.rest or ingest.kafka to be enabled")
		}
	default:
		return fmt.Errorf("alerts.source must be %q or %q, got %q", AlertSourceUpstream, AlertSourceFeed, cfg.Alerts.Source)
	}
	if cfg.Ingest.REST.Enabled && cfg.Ingest.REST.Addr == "" {
		return errors.New("ingest.rest.addr required when ingest.rest.enabled is true")
	}
	if cfg.Ingest.Kafka.Enabled {
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" || cfg.Ingest.Kafka.GroupID == "" {
			return errors.New("ingest.kafka requires brokers, topic, group_id")
		}
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	if info, err := os.Stat(path); err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStaticManager serves a fixed config with no backing file.
func NewStaticManager(cfg *Config) *Manager {
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
