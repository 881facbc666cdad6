package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"transitdash/internal/config"
	"transitdash/internal/model"
)

func StartKafka(ctx context.Context, cfg *config.Manager, out chan<- model.Alert, logger *slog.Logger) {
	current := cfg.Get().Ingest.Kafka
	if !current.Enabled {
		if logger != nil {
			logger.Info("kafka alert feed disabled")
		}
		return
	}
	if logger != nil {
		logger.Info("kafka alert feed enabled", "brokers", current.Brokers, "topic", current.Topic, "group_id", current.GroupID)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  current.Brokers,
		Topic:    current.Topic,
		GroupID:  current.GroupID,
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})
	go func() {
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if logger != nil {
					logger.Warn("kafka read error", "err", err)
				}
				if !BackoffSleep(ctx, time.Second) {
					return
				}
				continue
			}
			list, failed, err := ParseFeed(m.Value)
			if err != nil {
				if logger != nil {
					logger.Warn("kafka alert decode error", "err", err, "offset", m.Offset, "partition", m.Partition)
				}
				continue
			}
			if failed > 0 && logger != nil {
				logger.Warn("kafka alert entities skipped", "failed", failed, "offset", m.Offset)
			}
			for _, a := range list {
				SendNonBlocking(ctx, out, a, logger)
			}
		}
	}()
}
