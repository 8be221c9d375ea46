package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/matchbooking/config"
	"github.com/Domenick1991/matchbooking/internal/bootstrap"
	"github.com/Domenick1991/matchbooking/internal/kafka"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/Domenick1991/matchbooking/internal/notify"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New("matchbooking-worker", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("init dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
		defer consumer.Close()
		dispatcher := notify.NewDispatcher(notify.NewLogSender(logger), logger)

		g.Go(func() error {
			logger.Info("consuming notifications", "topic", cfg.Kafka.NotificationsTopic)
			return consumer.Consume(gctx, dispatcher.Handle)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Worker.SweepInterval())
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				deps.Sweep(gctx, logger)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", "error", err)
		deps.Close()
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
