package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/tui"
	"github.com/aberthet/chantier-sync/models"
)

// App is the client process: login, background sync job, realtime listener,
// and the status screen, wired over one local replica.
type App struct {
	services *service.ClientServices
	stores   *store.ClientStorages
	adapter  adapter.ServerAdapter
	realtime *adapter.RealtimeClient
	tui      *tui.TUI

	clientKind models.ClientKind
	logger     *logger.Logger
}

func NewApp(services *service.ClientServices, stores *store.ClientStorages, serverAdapter adapter.ServerAdapter, realtimeClient *adapter.RealtimeClient, ui *tui.TUI, clientKind models.ClientKind, logger *logger.Logger) (*App, error) {
	if services == nil || stores == nil || serverAdapter == nil || ui == nil {
		return nil, errors.New("client app is missing a dependency")
	}

	return &App{
		services:   services,
		stores:     stores,
		adapter:    serverAdapter,
		realtime:   realtimeClient,
		tui:        ui,
		clientKind: clientKind,
		logger:     logger,
	}, nil
}

// Run implements [Client]. It blocks until the user quits.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user, err := a.tui.LoginFlow(ctx)
	if err != nil {
		if errors.Is(err, tui.ErrUserQuit) {
			return nil
		}
		return fmt.Errorf("login flow: %w", err)
	}

	deviceID, err := a.stores.Meta.DeviceID(ctx, a.clientKind)
	if err != nil {
		return fmt.Errorf("resolving device id: %w", err)
	}
	a.logger.Info().
		Int64("user_id", user.UserID).
		Str("device_id", deviceID).
		Msg("session open")

	a.startRealtime(ctx, user.UserID, deviceID)

	a.services.SyncJob.Start(ctx, user.UserID)
	defer a.services.SyncJob.Stop()

	return a.tui.StatusLoop(ctx, user.UserID)
}

// startRealtime launches the WebSocket listener. Incoming operations go
// through the reconcile engine; connection transitions flip the idle status
// and a reconnect schedules a recovery sync, since frames may have been
// missed while the channel was down.
func (a *App) startRealtime(ctx context.Context, userID int64, deviceID string) {
	if a.realtime == nil {
		return
	}

	a.realtime.SetToken(a.adapter.Token())

	var wasConnected bool
	a.realtime.OnStateChange(func(state adapter.ConnState) {
		connected := state == adapter.ConnConnected
		a.services.SyncService.SetRealtimeConnected(connected)
		if connected && wasConnected {
			a.services.SyncJob.NotifyOnline()
		}
		if connected {
			wasConnected = true
		}
	})

	go a.realtime.Run(ctx, deviceID, func(op models.Operation) {
		if err := a.services.SyncService.ApplyRemote(ctx, userID, op); err != nil {
			a.logger.Warn().Err(err).Str("operation_id", op.ID).Msg("realtime apply failed")
		}
	})
}
