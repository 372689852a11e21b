package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Use(withCompression)
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/version", h.getServerVersion)
	})

	// sync routes, JWT protected
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(withCompression)
		r.Post("/api/sync/push", h.push)
		r.Get("/api/sync/pull", h.pull)
		r.Post("/api/sync/resolve", h.resolve)
		r.Get("/api/sync/metrics", h.syncMetrics)
	})

	// the websocket upgrade needs http.Hijacker, which the gzip response
	// writer does not provide, so the route stays outside the gzip group
	router.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Get("/api/sync/ws", h.realtimeUpgrade)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
