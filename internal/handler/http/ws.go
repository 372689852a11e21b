package http

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// tokens already gate the route; the desktop client sends no Origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// realtimeUpgrade switches an authenticated request over to the realtime
// WebSocket channel and hands the connection to the hub.
func (h *Handler) realtimeUpgrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.realtimeUpgrade").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		deviceID, _ = utils.GetDeviceIDFromContext(ctx)
	}
	if deviceID == "" {
		log.Error().Str("func", "*Handler.realtimeUpgrade").Msg("no device ID was given")
		http.Error(w, "no device ID was given", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		log.Err(err).Str("func", "*Handler.realtimeUpgrade").Msg("websocket upgrade failed")
		return
	}

	h.hub.ServeConn(ctx, conn, userID, deviceID)
}
