// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

// Package realtime implements the server's WebSocket fan-out channel. Every
// operation accepted by the sync service is pushed to the user's other
// connected devices so an online device converges without waiting for its
// next pull. Delivery is best effort: a device that misses frames recovers
// through the normal pull path.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// Config tunes the realtime channel.
type Config struct {
	// BufferSize is the per-session frame buffer; frames beyond it are
	// dropped rather than blocking the sync service.
	BufferSize int

	// PingInterval is how often idle connections are pinged.
	PingInterval time.Duration

	// WriteTimeout bounds every WebSocket write.
	WriteTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:   256,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// FanoutRecorder accounts delivered frames; satisfied by the service metrics
// store.
type FanoutRecorder interface {
	RecordFanout(userID int64, delivered int)
}

// session is one connected device. The filter starts nil (deliver
// everything) and narrows when the device sends a subscribe frame.
type session struct {
	userID   int64
	deviceID string

	mu     sync.Mutex
	filter *models.SubscribeMessage
	closed bool

	ch   chan models.Operation
	done chan struct{}
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func (s *session) setFilter(f *models.SubscribeMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f != nil && len(f.ProjectIDs) == 0 && len(f.Entities) == 0 {
		// empty subscribe resets to the default all-entities group
		f = nil
	}
	s.filter = f
}

// matches applies the session's subscription filter to one operation.
func (s *session) matches(op models.Operation) bool {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	if filter == nil {
		return true
	}

	if len(filter.Entities) > 0 {
		found := false
		for _, kind := range filter.Entities {
			if op.Entity == kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.ProjectIDs) > 0 {
		// only project-scoped operations are narrowed; kinds without a
		// project reference (company, ...) always pass
		projectID := ""
		if op.Entity == models.EntityProject {
			projectID = op.EntityID
		} else if ref, ok := op.Data["projectId"].(string); ok {
			projectID = ref
		}
		if projectID != "" {
			for _, id := range filter.ProjectIDs {
				if id == projectID {
					return true
				}
			}
			return false
		}
	}

	return true
}

// Hub tracks every connected device grouped by user and fans accepted
// operations out to them. It implements the sync service's Broadcaster.
type Hub struct {
	cfg      Config
	recorder FanoutRecorder
	logger   *logger.Logger

	mu       sync.RWMutex
	sessions map[int64]map[*session]struct{}
}

// NewHub constructs a Hub. recorder may be nil.
func NewHub(cfg Config, recorder FanoutRecorder, logger *logger.Logger) *Hub {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Hub{
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
		sessions: make(map[int64]map[*session]struct{}),
	}
}

func (h *Hub) register(userID int64, deviceID string) *session {
	s := &session{
		userID:   userID,
		deviceID: deviceID,
		ch:       make(chan models.Operation, h.cfg.BufferSize),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	group, ok := h.sessions[userID]
	if !ok {
		group = make(map[*session]struct{})
		h.sessions[userID] = group
	}
	group[s] = struct{}{}
	h.mu.Unlock()

	return s
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	if group, ok := h.sessions[s.userID]; ok {
		delete(group, s)
		if len(group) == 0 {
			delete(h.sessions, s.userID)
		}
	}
	h.mu.Unlock()

	s.close()
}

// Broadcast implements service.Broadcaster. The originating device is
// excluded: it already holds the change. Sessions with a full buffer drop
// the frame.
func (h *Hub) Broadcast(userID int64, excludeDeviceID string, op models.Operation) {
	h.mu.RLock()
	group := h.sessions[userID]
	targets := make([]*session, 0, len(group))
	for s := range group {
		if excludeDeviceID != "" && s.deviceID == excludeDeviceID {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if !s.matches(op) {
			continue
		}
		select {
		case s.ch <- op:
			delivered++
		default:
			h.logger.Warn().
				Str("device_id", s.deviceID).
				Int64("user_id", userID).
				Msg("realtime buffer full, dropping frame")
		}
	}

	if h.recorder != nil && delivered > 0 {
		h.recorder.RecordFanout(userID, delivered)
	}
}

// ConnectedDevices returns the number of open sessions for a user.
func (h *Hub) ConnectedDevices(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// ServeConn drives one upgraded WebSocket connection until the peer
// disconnects or ctx is cancelled. It owns both pump goroutines; the caller
// (HTTP handler) just upgrades and hands the connection over.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn, userID int64, deviceID string) {
	log := logger.FromContext(ctx)

	s := h.register(userID, deviceID)
	defer h.unregister(s)
	defer conn.Close()

	log.Info().
		Int64("user_id", userID).
		Str("device_id", deviceID).
		Msg("realtime session opened")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go h.readPump(cancel, conn, s)
	h.writePump(ctx, conn, s)

	log.Info().
		Int64("user_id", userID).
		Str("device_id", deviceID).
		Msg("realtime session closed")
}

// readPump consumes subscribe frames and pongs until the connection drops.
func (h *Hub) readPump(cancel context.CancelFunc, conn *websocket.Conn, s *session) {
	defer cancel()

	conn.SetPongHandler(func(string) error { return nil })

	for {
		var frame models.RealtimeFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Event {
		case models.EventSubscribe:
			s.setFilter(frame.Subscribe)
		default:
			// clients only ever send subscribe frames; anything else is
			// ignored rather than killing the session
		}
	}
}

// writePump forwards buffered operations and keeps the connection alive with
// pings.
func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, s *session) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case op := <-s.ch:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			frame := models.RealtimeFrame{Event: models.EventOperation, Operation: &op}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
