package service

import (
	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/models"
)

// ClientServices bundles the client-side service layer.
type ClientServices struct {
	AuthService ClientAuthService
	SyncService ClientSyncService
	SyncJob     ClientSyncJob
	Reconciler  Reconciler
}

// NewClientServices wires the client services over the local storage layer
// and the server adapter.
func NewClientServices(stores *store.ClientStorages, serverAdapter adapter.ServerAdapter, cfg *config.ClientConfig, logger *logger.Logger) *ClientServices {
	reconciler := NewReconciler(stores.Replica, stores.OperationLog, logger)
	syncSvc := NewClientSyncService(stores, serverAdapter, reconciler, cfg.Sync, models.ClientKind(cfg.App.ClientKind), logger)

	return &ClientServices{
		AuthService: NewClientAuthService(serverAdapter, logger),
		SyncService: syncSvc,
		SyncJob:     NewClientSyncJob(syncSvc, cfg.Sync, logger),
		Reconciler:  reconciler,
	}
}
