// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"sync"

	"github.com/aberthet/chantier-sync/models"
)

// SyncMetrics keeps in-memory per-user counters of sync activity. It is
// deliberately process-local: the numbers feed the status endpoint, not an
// observability pipeline, and reset on restart.
type SyncMetrics struct {
	mu    sync.Mutex
	users map[int64]*userCounters
}

type userCounters struct {
	pushedOps      int64
	appliedOps     int64
	conflicts      int64
	failedOps      int64
	pulls          int64
	realtimeFanout int64
	devices        map[string]struct{}
}

// NewSyncMetrics constructs an empty metrics store.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{users: make(map[int64]*userCounters)}
}

func (m *SyncMetrics) counters(userID int64) *userCounters {
	c, ok := m.users[userID]
	if !ok {
		c = &userCounters{devices: make(map[string]struct{})}
		m.users[userID] = c
	}
	return c
}

// RecordPush accounts for one processed push batch.
func (m *SyncMetrics) RecordPush(userID int64, deviceID string, applied, conflicts, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counters(userID)
	c.pushedOps += int64(applied + conflicts + failed)
	c.appliedOps += int64(applied)
	c.conflicts += int64(conflicts)
	c.failedOps += int64(failed)
	if deviceID != "" {
		c.devices[deviceID] = struct{}{}
	}
}

// RecordPull accounts for one pull request.
func (m *SyncMetrics) RecordPull(userID int64, deviceID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.counters(userID)
	c.pulls++
	if deviceID != "" {
		c.devices[deviceID] = struct{}{}
	}
}

// RecordFanout accounts for operations delivered over the realtime channel.
func (m *SyncMetrics) RecordFanout(userID int64, delivered int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters(userID).realtimeFanout += int64(delivered)
}

// Snapshot implements [MetricsService].
func (m *SyncMetrics) Snapshot(userID int64) models.UserSyncMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.users[userID]
	if !ok {
		return models.UserSyncMetrics{UserID: userID}
	}
	return models.UserSyncMetrics{
		UserID:         userID,
		PushedOps:      c.pushedOps,
		AppliedOps:     c.appliedOps,
		Conflicts:      c.conflicts,
		FailedOps:      c.failedOps,
		Pulls:          c.pulls,
		RealtimeFanout: c.realtimeFanout,
		ActiveDevices:  len(c.devices),
	}
}
