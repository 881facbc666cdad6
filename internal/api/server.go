package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"transitdash/internal/alerts"
	"transitdash/internal/config"
	"transitdash/internal/metrics"
	"transitdash/internal/model"
	"transitdash/internal/stats"
	"transitdash/internal/timeutil"
)

// StatsSource is the remote statistics API as seen by the dashboard.
type StatsSource interface {
	Routes(ctx context.Context) ([]model.Route, error)
	RouteStats(ctx context.Context) ([]model.RouteStat, error)
	RouteStatsOverTime(ctx context.Context, routeID string, directionID int) ([]model.RouteStat, error)
	RouteVehicles(ctx context.Context, routeID string, directionID int) ([]model.VehicleUpdate, error)
	StopStats(ctx context.Context) ([]model.StopStat, error)
	StopStatsOverTime(ctx context.Context, stopID string) ([]model.StopStat, error)
	StopUpdates(ctx context.Context, stopID string) ([]model.VehicleUpdate, error)
}

type AlertSource interface {
	Alerts(ctx context.Context) ([]model.Alert, error)
}

type Server struct {
	cfg     *config.Manager
	stats   StatsSource
	alerts  AlertSource
	logger  *slog.Logger
	version string
	now     func() time.Time
	fetches *metrics.Store
}

type statusResponse struct {
	Status      string       `json:"status"`
	Time        string       `json:"time"`
	Version     string       `json:"version"`
	ConfigPath  string       `json:"config_path"`
	AlertSource string       `json:"alert_source"`
	Upstream    string       `json:"upstream"`
	API         apiStatus    `json:"api"`
	Ingest      ingestStatus `json:"ingest"`

	Fetches map[string]metrics.FetchStats `json:"upstream_fetches,omitempty"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

type ingestStatus struct {
	REST  bool `json:"rest"`
	Kafka bool `json:"kafka"`
}

type ticksResponse struct {
	Range  model.TimeRange `json:"range"`
	Ticks  []int64         `json:"ticks"`
	Labels []string        `json:"labels"`
}

var errMissingParam = errors.New("missing required parameter")

func NewServer(cfg *config.Manager, statsSource StatsSource, alertSource AlertSource, logger *slog.Logger, version string) *Server {
	return &Server{
		cfg:     cfg,
		stats:   statsSource,
		alerts:  alertSource,
		logger:  logger,
		version: version,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock; used to pin "now" in tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// WithMetrics exposes upstream fetch counters on /status.
func (s *Server) WithMetrics(store *metrics.Store) *Server {
	s.fetches = store
	return s
}

func Start(ctx context.Context, cfg *config.Manager, statsSource StatsSource, alertSource AlertSource, fetches *metrics.Store, logger *slog.Logger, version string) *http.Server {
	if cfg == nil {
		return nil
	}
	current := cfg.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := NewServer(cfg, statsSource, alertSource, logger, version).WithMetrics(fetches)
	httpServer := &http.Server{Addr: current.Addr, Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", getOnly(s.handleStatus))
	mux.HandleFunc("/ticks", getOnly(s.handleTicks))
	mux.HandleFunc("/routes", getOnly(s.handleRoutes))
	mux.HandleFunc("/routes/stats", getOnly(s.handleRouteStats))
	mux.HandleFunc("/routes/series", getOnly(s.handleRouteSeries))
	mux.HandleFunc("/routes/vehicles", getOnly(s.handleRouteVehicles))
	mux.HandleFunc("/stops/stats", getOnly(s.handleStopStats))
	mux.HandleFunc("/stops/series", getOnly(s.handleStopSeries))
	mux.HandleFunc("/stops/updates", getOnly(s.handleStopUpdates))
	mux.HandleFunc("/alerts", getOnly(s.handleAlerts))
	mux.HandleFunc("/alerts/active", getOnly(s.handleActiveAlerts))
	mux.HandleFunc("/alerts/summary", getOnly(s.handleAlertSummary))
	return mux
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	cfg := s.cfg.Get()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      "ok",
		Time:        s.now().Format(time.RFC3339Nano),
		Version:     s.version,
		ConfigPath:  s.cfg.Path(),
		AlertSource: cfg.Alerts.Source,
		Upstream:    cfg.Upstream.BaseURL,
		API:         apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr},
		Ingest:      ingestStatus{REST: cfg.Ingest.REST.Enabled, Kafka: cfg.Ingest.Kafka.Enabled},
		Fetches:     s.fetches.GetAll(),
	})
}

func (s *Server) handleTicks(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ticks := timeutil.GenerateTicks(rng, s.now())
	writeJSON(w, http.StatusOK, ticksResponse{Range: rng, Ticks: ticks, Labels: timeutil.TickLabels(ticks)})
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	list, err := s.stats.Routes(r.Context())
	if err != nil {
		s.upstreamError(w, "routes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": list, "count": len(list)})
}

func (s *Server) handleRouteStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.stats.RouteStats(r.Context())
	if err != nil {
		s.upstreamError(w, "route stats", err)
		return
	}
	rows := stats.DeriveRoutes(list)
	writeJSON(w, http.StatusOK, map[string]any{"routes": rows, "count": len(rows)})
}

func (s *Server) handleRouteSeries(w http.ResponseWriter, r *http.Request) {
	routeID, directionID, err := parseRoute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := s.stats.RouteStatsOverTime(r.Context(), routeID, directionID)
	if err != nil {
		s.upstreamError(w, "route stats over time", err, "route_id", routeID, "direction_id", directionID)
		return
	}
	writeJSON(w, http.StatusOK, stats.RouteSeries(list, rng, s.now()))
}

func (s *Server) handleRouteVehicles(w http.ResponseWriter, r *http.Request) {
	routeID, directionID, err := parseRoute(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := s.stats.RouteVehicles(r.Context(), routeID, directionID)
	if err != nil {
		s.upstreamError(w, "route vehicles", err, "route_id", routeID, "direction_id", directionID)
		return
	}
	rows := stats.VehicleRows(list, s.cfg.Get().Stats.HighDelay)
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": rows, "count": len(rows)})
}

func (s *Server) handleStopStats(w http.ResponseWriter, r *http.Request) {
	list, err := s.stats.StopStats(r.Context())
	if err != nil {
		s.upstreamError(w, "stop stats", err)
		return
	}
	rows := stats.DeriveStops(list)
	writeJSON(w, http.StatusOK, map[string]any{"stops": rows, "count": len(rows)})
}

func (s *Server) handleStopSeries(w http.ResponseWriter, r *http.Request) {
	stopID, err := requireParam(r, "stop_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := s.stats.StopStatsOverTime(r.Context(), stopID)
	if err != nil {
		s.upstreamError(w, "stop stats over time", err, "stop_id", stopID)
		return
	}
	writeJSON(w, http.StatusOK, stats.StopSeries(list, rng, s.now()))
}

func (s *Server) handleStopUpdates(w http.ResponseWriter, r *http.Request) {
	stopID, err := requireParam(r, "stop_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	list, err := s.stats.StopUpdates(r.Context(), stopID)
	if err != nil {
		s.upstreamError(w, "stop updates", err, "stop_id", stopID)
		return
	}
	rows := stats.VehicleRows(list, s.cfg.Get().Stats.HighDelay)
	writeJSON(w, http.StatusOK, map[string]any{"updates": rows, "count": len(rows)})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.alerts.Alerts(r.Context())
	if err != nil {
		s.upstreamError(w, "alerts", err)
		return
	}
	rows := alerts.Rows(alerts.Sort(list))
	writeJSON(w, http.StatusOK, map[string]any{"alerts": rows, "count": len(rows)})
}

func (s *Server) handleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	list, err := s.alerts.Alerts(r.Context())
	if err != nil {
		s.upstreamError(w, "alerts", err)
		return
	}
	rows := alerts.Rows(alerts.Sort(alerts.FilterActive(list, s.now())))
	writeJSON(w, http.StatusOK, map[string]any{"alerts": rows, "count": len(rows)})
}

func (s *Server) handleAlertSummary(w http.ResponseWriter, r *http.Request) {
	list, err := s.alerts.Alerts(r.Context())
	if err != nil {
		s.upstreamError(w, "alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, alerts.Summarize(list, s.now()))
}

func (s *Server) upstreamError(w http.ResponseWriter, what string, err error, attrs ...any) {
	if s.logger != nil {
		s.logger.Error("fetch "+what+" failed", append(attrs, "err", err)...)
	}
	writeError(w, http.StatusBadGateway, errors.New("fetch "+what+" failed"))
}

func parseRange(r *http.Request) (model.TimeRange, error) {
	return model.ParseTimeRange(r.URL.Query().Get("range"))
}

func parseRoute(r *http.Request) (string, int, error) {
	routeID, err := requireParam(r, "route_id")
	if err != nil {
		return "", 0, err
	}
	raw := strings.TrimSpace(r.URL.Query().Get("direction_id"))
	if raw == "" {
		return routeID, 0, nil
	}
	dir, err := strconv.Atoi(raw)
	if err != nil || dir < 0 {
		return "", 0, errors.New("direction_id must be a non-negative integer")
	}
	return routeID, dir, nil
}

func requireParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", errMissingParam, name)
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
