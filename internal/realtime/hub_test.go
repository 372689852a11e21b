// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

type recordedFanout struct {
	userID    int64
	delivered int
}

type stubRecorder struct {
	calls []recordedFanout
}

func (r *stubRecorder) RecordFanout(userID int64, delivered int) {
	r.calls = append(r.calls, recordedFanout{userID, delivered})
}

func testHub(rec FanoutRecorder) *Hub {
	return NewHub(DefaultConfig(), rec, logger.Nop())
}

func opFor(entity models.EntityKind, entityID string, data models.Payload) models.Operation {
	return models.Operation{
		ID:       "op-1",
		Type:     models.OperationUpdate,
		Entity:   entity,
		EntityID: entityID,
		Data:     data,
	}
}

func TestBroadcast_ExcludesOriginDevice(t *testing.T) {
	rec := &stubRecorder{}
	h := testHub(rec)

	origin := h.register(42, "device-a")
	other := h.register(42, "device-b")
	defer h.unregister(origin)
	defer h.unregister(other)

	h.Broadcast(42, "device-a", opFor(models.EntityProject, "p1", nil))

	assert.Len(t, other.ch, 1)
	assert.Empty(t, origin.ch)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, recordedFanout{42, 1}, rec.calls[0])
}

func TestBroadcast_IsUserScoped(t *testing.T) {
	h := testHub(nil)

	mine := h.register(42, "device-a")
	theirs := h.register(7, "device-x")
	defer h.unregister(mine)
	defer h.unregister(theirs)

	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))

	assert.Len(t, mine.ch, 1)
	assert.Empty(t, theirs.ch)
}

func TestBroadcast_EntityFilter(t *testing.T) {
	h := testHub(nil)

	s := h.register(42, "device-b")
	defer h.unregister(s)
	s.setFilter(&models.SubscribeMessage{Entities: []models.EntityKind{models.EntityPhoto}})

	h.Broadcast(42, "device-a", opFor(models.EntityProject, "p1", nil))
	h.Broadcast(42, "device-a", opFor(models.EntityPhoto, "ph1", nil))

	require.Len(t, s.ch, 1)
	got := <-s.ch
	assert.Equal(t, models.EntityPhoto, got.Entity)
}

func TestBroadcast_ProjectFilter(t *testing.T) {
	h := testHub(nil)

	s := h.register(42, "device-b")
	defer h.unregister(s)
	s.setFilter(&models.SubscribeMessage{ProjectIDs: []string{"p1"}})

	// scoped to the subscribed project: delivered
	h.Broadcast(42, "", opFor(models.EntityMetre, "m1", models.Payload{"projectId": "p1"}))
	// scoped to another project: dropped
	h.Broadcast(42, "", opFor(models.EntityMetre, "m2", models.Payload{"projectId": "p2"}))
	// not project-scoped at all: always delivered
	h.Broadcast(42, "", opFor(models.EntityCompany, "c1", models.Payload{"name": "Berthet BTP"}))
	// the project entity itself matches on its own id
	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))
	h.Broadcast(42, "", opFor(models.EntityProject, "p2", nil))

	assert.Len(t, s.ch, 3)
}

func TestSetFilter_EmptySubscribeResets(t *testing.T) {
	h := testHub(nil)

	s := h.register(42, "device-b")
	defer h.unregister(s)

	s.setFilter(&models.SubscribeMessage{Entities: []models.EntityKind{models.EntityPhoto}})
	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))
	assert.Empty(t, s.ch)

	s.setFilter(&models.SubscribeMessage{})
	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))
	assert.Len(t, s.ch, 1)
}

func TestBroadcast_FullBufferDropsFrame(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferSize = 1
	h := NewHub(cfg, nil, logger.Nop())

	s := h.register(42, "device-b")
	defer h.unregister(s)

	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))
	h.Broadcast(42, "", opFor(models.EntityProject, "p2", nil))

	// second frame dropped, session still alive
	assert.Len(t, s.ch, 1)
	assert.Equal(t, 1, h.ConnectedDevices(42))
}

func TestUnregister_RemovesSession(t *testing.T) {
	h := testHub(nil)

	s := h.register(42, "device-a")
	assert.Equal(t, 1, h.ConnectedDevices(42))

	h.unregister(s)
	assert.Zero(t, h.ConnectedDevices(42))

	// broadcasting to an empty group is a no-op
	h.Broadcast(42, "", opFor(models.EntityProject, "p1", nil))
}
