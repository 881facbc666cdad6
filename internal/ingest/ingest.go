// Package ingest accepts GTFS-realtime service alert entities pushed over REST
// or read from Kafka and feeds them to the alert store.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"transitdash/internal/alerts"
	"transitdash/internal/model"
)

func SendNonBlocking(ctx context.Context, out chan<- model.Alert, a model.Alert, logger *slog.Logger) bool {
	select {
	case out <- a:
		return true
	case <-ctx.Done():
		return false
	default:
		if logger != nil {
			logger.Warn("alert channel full, dropping alert", "alert_id", a.ID)
		}
		return false
	}
}

func BackoffSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 200 * time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Consume drains in into store until ctx is done.
func Consume(ctx context.Context, in <-chan model.Alert, store *alerts.Store, logger *slog.Logger) {
	go func() {
		for {
			select {
			case a := <-in:
				store.Add(a)
				if logger != nil {
					logger.Debug("alert ingested", "alert_id", a.ID, "severity", a.SeverityLevel)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
