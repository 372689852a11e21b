// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/models"
)

// push accepts a batch of pending operations from one device, applies them
// through the sync service and reports the per-operation outcome. A batch is
// never rejected wholesale: applied, conflicted and failed operations are
// returned side by side.
func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.push").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var pushRequest models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&pushRequest); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}
	if pushRequest.DeviceID == "" {
		if deviceID, ok := utils.GetDeviceIDFromContext(ctx); ok {
			pushRequest.DeviceID = deviceID
		}
	}

	result, err := h.services.SyncService.Push(ctx, userID, pushRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("push rejected")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	log.Debug().
		Int("applied", len(result.Success)).
		Int("conflicts", len(result.Conflicts)).
		Int("failed", len(result.Failed)).
		Msg("push processed")

	utils.WriteJSON(w, models.PushResponse{Success: result}, http.StatusOK)
}

// pull returns the operations recorded after the device's checkpoint,
// excluding the device's own writes. A checkpoint older than the replay-log
// floor yields a full snapshot instead.
func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pull").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Err(err).Str("since", raw).Msg("invalid since parameter")
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	deviceID := r.URL.Query().Get("deviceId")
	if deviceID == "" {
		deviceID, _ = utils.GetDeviceIDFromContext(ctx)
	}

	response, err := h.services.SyncService.Pull(ctx, userID, since, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("pull failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// resolve applies the user's choice for a surfaced conflict and returns the
// authoritative record as it stands afterwards.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.resolve").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var resolveRequest models.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&resolveRequest); err != nil {
		log.Err(err).Str("func", "*Handler.resolve").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	record, err := h.services.SyncService.Resolve(ctx, userID, resolveRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolve").Msg("conflict resolution failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, record, http.StatusOK)
}

// syncMetrics reports the per-user sync counters.
func (h *Handler) syncMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.syncMetrics").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	snapshot := h.services.MetricsService.Snapshot(userID)
	snapshot.ActiveDevices = h.hub.ConnectedDevices(userID)

	utils.WriteJSON(w, snapshot, http.StatusOK)
}
