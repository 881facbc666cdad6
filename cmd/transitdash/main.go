package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"transitdash/internal/alerts"
	"transitdash/internal/api"
	"transitdash/internal/config"
	"transitdash/internal/ingest"
	"transitdash/internal/logging"
	"transitdash/internal/metrics"
	"transitdash/internal/model"
	"transitdash/internal/upstream"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "transitdash:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "transitdash.yaml", "path to YAML or JSON config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		return nil
	}

	cfgManager, err := config.NewManager(config.ResolvePath(*configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := cfgManager.Get()
	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetches := metrics.NewStore(0)
	client, err := upstream.New(cfg.Upstream, logger)
	if err != nil {
		return err
	}
	client.WithMetrics(fetches)

	var alertSource api.AlertSource = client
	store := alerts.NewStore(cfg.Alerts.StoreLimit)
	feed := make(chan model.Alert, cfg.Ingest.ChannelBuffer)
	ingest.Consume(ctx, feed, store, logger)
	ingest.StartREST(ctx, cfgManager, feed, logger)
	ingest.StartKafka(ctx, cfgManager, feed, logger)
	if cfg.Alerts.Source == config.AlertSourceFeed {
		alertSource = store
	}
	logger.Info("alert source selected", "source", cfg.Alerts.Source)

	api.Start(ctx, cfgManager, client, alertSource, fetches, logger, version)

	go cfgManager.Watch(0, func(next *config.Config) {
		logger.Info("config reloaded", "path", cfgManager.Path())
	}, func(err error) {
		logger.Warn("config reload failed", "err", err)
	}, ctx.Done())

	logger.Info("transitdash started", "version", version, "upstream", cfg.Upstream.BaseURL)
	<-ctx.Done()
	logger.Info("transitdash stopping")
	return nil
}
