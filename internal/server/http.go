package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
)

type httpServer struct {
	server *http.Server
	logger *logger.Logger
}

// newHTTPServer wraps router in an http.Server bound to the configured
// address. Read/write timeouts stay open: the WebSocket route holds its
// connection for the lifetime of the client session.
func newHTTPServer(router http.Handler, cfg config.Server, logger *logger.Logger) *httpServer {
	return &httpServer{
		server: &http.Server{
			Addr:    cfg.HTTPAddress,
			Handler: router,
		},
		logger: logger,
	}
}

func (h *httpServer) RunServer() {
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		h.logger.Error().Err(err).Msg("HTTP server ListenAndServe")
	}
}

func (h *httpServer) Shutdown() {
	if err := h.server.Shutdown(context.Background()); err != nil {
		// listener close errors
		h.logger.Error().Err(err).Msg("HTTP server Shutdown")
	}
}
