package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/matchbooking/api"
	"github.com/Domenick1991/matchbooking/config"
	"github.com/Domenick1991/matchbooking/internal/bootstrap"
	"github.com/Domenick1991/matchbooking/internal/logging"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New("matchbooking-api", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("init dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	services := api.Services{
		Availability: deps.Availability,
		Bookings:     deps.Bookings,
		Invites:      deps.Invites,
	}
	if err := bootstrap.Run(ctx, cfg, logger, services); err != nil {
		logger.Error("server error", "error", err)
		deps.Close()
		os.Exit(1)
	}
}
