package http

import (
	"net/http"
)

// getServerVersion answers the client's compatibility check before a sync
// cycle starts. Plain text, no auth: the device may not have a session yet.
func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(h.services.AppInfoService.GetAppVersion(r.Context())))
}
