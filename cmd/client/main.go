package main

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/client"
	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/tui"
	"github.com/aberthet/chantier-sync/models"
)

// set through -ldflags at release time
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("chantier-sync-client")
	cfg, err := config.GetClientConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("loading configuration failed")
	}

	ctx := context.Background()

	stores, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("opening local replica failed")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("building server adapter failed")
	}

	realtimeClient, err := adapter.NewRealtimeClient(cfg.Adapter, log)
	if err != nil {
		log.Fatal().Err(err).Msg("building realtime client failed")
	}

	services := service.NewClientServices(stores, serverAdapter, cfg, log)

	ui, err := tui.New(services, log)
	if err != nil {
		log.Fatal().Err(err).Msg("building terminal ui failed")
	}

	app, err := client.NewApp(services, stores, serverAdapter, realtimeClient, ui, models.ClientKind(cfg.App.ClientKind), log)
	if err != nil {
		log.Fatal().Err(err).Msg("assembling client app failed")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("client exited with error")
	}
}

func printBuildInfo() {
	version, date, commit := buildVersion, buildDate, buildCommit
	if version == "" {
		version = "N/A"
	}
	if date == "" {
		date = "N/A"
	}
	if commit == "" {
		commit = "N/A"
	}

	fmt.Printf("Build version: %s\n", version)
	fmt.Printf("Build date: %s\n", date)
	fmt.Printf("Build commit: %s\n", commit)
}
