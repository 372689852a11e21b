package http

import (
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/realtime"
	"github.com/aberthet/chantier-sync/internal/service"
)

type Handler struct {
	services *service.Services
	hub      *realtime.Hub

	logger *logger.Logger
}

func NewHandler(services *service.Services, hub *realtime.Hub, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		hub:      hub,
		logger:   logger,
	}
}
