// Package upstream fetches transit statistics from the remote statistics API.
// Each call is a single attempt; callers decide what to do with failures.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	promconfig "github.com/prometheus/common/config"

	"transitdash/internal/config"
	"transitdash/internal/metrics"
	"transitdash/internal/model"
)

var ErrStatus = errors.New("upstream returned non-success status")

const maxBodyBytes = 8 << 20

type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Store
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

func New(cfg config.UpstreamConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base_url must be absolute: %q", cfg.BaseURL)
	}
	hc, err := promconfig.NewClientFromConfig(cfg.HTTPClient, "transitdash_upstream",
		promconfig.WithIdleConnTimeout(90*time.Second))
	if err != nil {
		return nil, fmt.Errorf("build upstream http client: %w", err)
	}
	return &Client{base: base, http: hc, timeout: cfg.Timeout, logger: logger}, nil
}

// WithMetrics records the outcome of every fetch into store.
func (c *Client) WithMetrics(store *metrics.Store) *Client {
	c.metrics = store
	return c
}

func (c *Client) Routes(ctx context.Context) ([]model.Route, error) {
	return fetch[model.Route](ctx, c, "/routes", nil)
}

func (c *Client) RouteStats(ctx context.Context) ([]model.RouteStat, error) {
	return fetch[model.RouteStat](ctx, c, "/route_stats", nil)
}

func (c *Client) RouteStatsOverTime(ctx context.Context, routeID string, directionID int) ([]model.RouteStat, error) {
	return fetch[model.RouteStat](ctx, c, "/route_stats_over_time", routeQuery(routeID, directionID))
}

func (c *Client) RouteVehicles(ctx context.Context, routeID string, directionID int) ([]model.VehicleUpdate, error) {
	return fetch[model.VehicleUpdate](ctx, c, "/route_vehicles", routeQuery(routeID, directionID))
}

func (c *Client) StopStats(ctx context.Context) ([]model.StopStat, error) {
	return fetch[model.StopStat](ctx, c, "/stop_stats", nil)
}

func (c *Client) StopStatsOverTime(ctx context.Context, stopID string) ([]model.StopStat, error) {
	return fetch[model.StopStat](ctx, c, "/stop_stats_over_time", url.Values{"stop_id": {stopID}})
}

func (c *Client) StopUpdates(ctx context.Context, stopID string) ([]model.VehicleUpdate, error) {
	return fetch[model.VehicleUpdate](ctx, c, "/stop_updates", url.Values{"stop_id": {stopID}})
}

func (c *Client) Alerts(ctx context.Context) ([]model.Alert, error) {
	return fetch[model.Alert](ctx, c, "/alerts", nil)
}

func fetch[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	out := []T{}
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func routeQuery(routeID string, directionID int) url.Values {
	return url.Values{
		"route_id":     {routeID},
		"direction_id": {strconv.Itoa(directionID)},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	started := time.Now()
	status, err := c.do(ctx, path, query, out)
	c.metrics.Record(path, status, time.Since(started), err)
	return err
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	if c.logger != nil {
		c.logger.Debug("upstream fetch", "path", path, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(started))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("get %s: http %d: %w", path, resp.StatusCode, ErrStatus)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s envelope: %w", path, err)
	}
	if env.StatusCode != http.StatusOK {
		return env.StatusCode, fmt.Errorf("get %s: status %d: %w", path, env.StatusCode, ErrStatus)
	}
	if len(env.Body) == 0 || string(env.Body) == "null" {
		return env.StatusCode, nil
	}
	if err := json.Unmarshal(env.Body, out); err != nil {
		return env.StatusCode, fmt.Errorf("decode %s body: %w", path, err)
	}
	return env.StatusCode, nil
}
