package service

import (
	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
)

type Services struct {
	AuthService    AuthService
	SyncService    SyncService
	MetricsService MetricsService
	AppInfoService AppInfoService
}

// NewServices wires the server-side service layer. The metrics value is
// shared with the realtime hub, so the caller constructs it and passes it
// both ways.
func NewServices(storages *store.Storages, cfg config.StructuredConfig, broadcaster Broadcaster, metrics *SyncMetrics, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		AuthService:    NewAuthService(storages.UserRepository, cfg.App, logger),
		SyncService:    NewSyncService(storages.EntityRepository, storages.OperationRepository, broadcaster, metrics, logger),
		MetricsService: metrics,
		AppInfoService: appInfo,
	}, nil
}
