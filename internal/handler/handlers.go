package handler

import (
	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/handler/http"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/realtime"
	"github.com/aberthet/chantier-sync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, hub *realtime.Hub, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{
		HTTP: http.NewHandler(services, hub, logger),
	}, nil
}
