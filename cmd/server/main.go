package main

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/handler"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/realtime"
	"github.com/aberthet/chantier-sync/internal/server"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("chantier-sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	// The metrics collector is shared: the services record apply outcomes on
	// it and the hub records fan-out deliveries.
	metrics := service.NewSyncMetrics()
	hub := realtime.NewHub(realtime.DefaultConfig(), metrics, log)

	services, err := service.NewServices(storages, *cfg, hub, metrics, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, hub, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	background := workers.NewWorkers(
		workers.NewReplayPruner(storages.OperationRepository, cfg.Workers, log),
	)
	go background.Run(ctx)

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
