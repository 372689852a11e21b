// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/models"
)

// clientSyncService is the concrete [ClientSyncService]. One cycle is push
// then pull; local writes keep landing in the operation log while a cycle is
// in flight, they are simply picked up by the next one.
type clientSyncService struct {
	stores     *store.ClientStorages
	adapter    adapter.ServerAdapter
	reconciler Reconciler
	syncCfg    config.ClientSync
	clientKind models.ClientKind
	logger     *logger.Logger

	// cycleMu serialises whole cycles; Sync uses TryLock so a re-entrant
	// trigger returns instead of queueing behind the running cycle.
	cycleMu sync.Mutex

	stateMu  sync.Mutex
	state    models.SyncState
	realtime bool
	onStatus StatusFunc

	now func() time.Time
}

// NewClientSyncService constructs a [ClientSyncService] over the local
// storage layer and the server adapter.
func NewClientSyncService(stores *store.ClientStorages, serverAdapter adapter.ServerAdapter, reconciler Reconciler, syncCfg config.ClientSync, clientKind models.ClientKind, logger *logger.Logger) ClientSyncService {
	return &clientSyncService{
		stores:     stores,
		adapter:    serverAdapter,
		reconciler: reconciler,
		syncCfg:    syncCfg,
		clientKind: clientKind,
		logger:     logger,
		state:      models.SyncState{Status: models.StatusOffline},
		now:        time.Now,
	}
}

// Push implements [ClientSyncService]. The acknowledged subset is every
// pushed operation the server did not list as failed: applied operations
// succeeded, conflicted operations were seen and rejected by the
// last-writer-wins screen and retrying them can only conflict again.
func (s *clientSyncService) Push(ctx context.Context, userID int64) (models.PushResult, error) {
	pending, err := s.stores.OperationLog.Pending(ctx, userID)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("loading pending operations: %w", err)
	}
	if len(pending) == 0 {
		return models.PushResult{}, nil
	}

	deviceID, err := s.stores.Meta.DeviceID(ctx, s.clientKind)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("resolving device id: %w", err)
	}

	result, err := s.adapter.Push(ctx, models.PushRequest{Operations: pending, DeviceID: deviceID})
	if err != nil {
		return models.PushResult{}, mapAdapterError(err)
	}

	failed := make(map[string]struct{}, len(result.Failed))
	for _, opErr := range result.Failed {
		failed[opErr.ID] = struct{}{}
	}
	acked := make([]string, 0, len(pending))
	for _, op := range pending {
		if _, stillPending := failed[op.ID]; !stillPending {
			acked = append(acked, op.ID)
		}
	}
	if len(acked) > 0 {
		if err := s.stores.OperationLog.MarkSynced(ctx, acked, s.now()); err != nil {
			return result, fmt.Errorf("marking operations synced: %w", err)
		}
	}

	if len(result.Conflicts) > 0 || len(result.Failed) > 0 {
		s.logger.Warn().
			Int("pushed", len(pending)).
			Int("conflicts", len(result.Conflicts)).
			Int("failed", len(result.Failed)).
			Msg("push batch partially rejected")
	}
	return result, nil
}

// Pull implements [ClientSyncService]. The checkpoint is advanced to the
// reply's server time even when zero operations were applied, so a device
// that skipped everything does not re-download the same window forever.
func (s *clientSyncService) Pull(ctx context.Context, userID int64) (ApplyReport, error) {
	since, err := s.stores.Meta.Checkpoint(ctx, userID)
	if err != nil {
		return ApplyReport{}, fmt.Errorf("loading checkpoint: %w", err)
	}
	deviceID, err := s.stores.Meta.DeviceID(ctx, s.clientKind)
	if err != nil {
		return ApplyReport{}, fmt.Errorf("resolving device id: %w", err)
	}

	response, err := s.adapter.Pull(ctx, since, deviceID)
	if err != nil {
		return ApplyReport{}, mapAdapterError(err)
	}

	report, err := s.reconciler.Reconcile(ctx, userID, response.Operations)
	if err != nil {
		return report, fmt.Errorf("reconciling pulled operations: %w", err)
	}

	if err := s.stores.Meta.SetCheckpoint(ctx, userID, response.ServerTime); err != nil {
		return report, fmt.Errorf("advancing checkpoint: %w", err)
	}
	return report, nil
}

// Sync implements [ClientSyncService].
func (s *clientSyncService) Sync(ctx context.Context, userID int64) error {
	if !s.cycleMu.TryLock() {
		s.logger.Debug().Msg("sync cycle already running, trigger ignored")
		return nil
	}
	defer s.cycleMu.Unlock()

	log := logger.FromContext(ctx)

	s.setStatus(ctx, userID, models.StatusSyncing, nil)
	pushResult, err := s.Push(ctx, userID)
	if err != nil {
		s.setStatus(ctx, userID, models.StatusError, err)
		return fmt.Errorf("push phase: %w", err)
	}

	s.setStatus(ctx, userID, models.StatusPulling, nil)
	report, err := s.Pull(ctx, userID)
	if err != nil {
		s.setStatus(ctx, userID, models.StatusError, err)
		return fmt.Errorf("pull phase: %w", err)
	}

	horizon := s.now().Add(-s.syncCfg.Retention)
	purged, err := s.stores.OperationLog.PurgeSyncedBefore(ctx, userID, horizon)
	if err != nil {
		// the cycle itself succeeded; a failed purge only delays cleanup
		log.Warn().Err(err).Msg("retention purge failed")
	}

	log.Info().
		Int("pushed", len(pushResult.Success)).
		Int("applied", report.Applied).
		Int("skipped", report.Skipped).
		Int("apply_failed", report.Failed).
		Int64("purged", purged).
		Msg("sync cycle complete")

	now := s.now()
	s.stateMu.Lock()
	s.state.LastSyncAt = &now
	s.stateMu.Unlock()
	s.setStatus(ctx, userID, s.idleStatus(), nil)
	return nil
}

// ApplyRemote implements [ClientSyncService].
func (s *clientSyncService) ApplyRemote(ctx context.Context, userID int64, op models.Operation) error {
	report, err := s.reconciler.Reconcile(ctx, userID, []models.Operation{op})
	if err != nil {
		return fmt.Errorf("applying realtime operation: %w", err)
	}
	if report.Failed > 0 {
		return fmt.Errorf("realtime operation %s was not applied", op.ID)
	}
	return nil
}

// ClearPending implements [ClientSyncService].
func (s *clientSyncService) ClearPending(ctx context.Context, userID int64) (int64, error) {
	dropped, err := s.stores.OperationLog.ClearPending(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("clearing pending operations: %w", err)
	}
	s.logger.Info().Int64("dropped", dropped).Msg("pending operations cleared")
	s.setStatus(ctx, userID, s.idleStatus(), nil)
	return dropped, nil
}

// ForceFullResync implements [ClientSyncService].
func (s *clientSyncService) ForceFullResync(ctx context.Context, userID int64) error {
	if err := s.stores.Meta.ResetCheckpoint(ctx, userID); err != nil {
		return fmt.Errorf("resetting checkpoint: %w", err)
	}
	s.logger.Info().Int64("user_id", userID).Msg("checkpoint reset, next pull is a full snapshot")
	return s.Sync(ctx, userID)
}

// State implements [ClientSyncService].
func (s *clientSyncService) State() models.SyncState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// OnStatusChange implements [ClientSyncService].
func (s *clientSyncService) OnStatusChange(fn StatusFunc) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.onStatus = fn
}

// SetRealtimeConnected implements [ClientSyncService].
func (s *clientSyncService) SetRealtimeConnected(connected bool) {
	s.stateMu.Lock()
	s.realtime = connected
	idle := s.state.Status == models.StatusSynced || s.state.Status == models.StatusRealtime
	s.stateMu.Unlock()

	if idle {
		s.publishStatus(s.idleStatus(), nil)
	}
}

// idleStatus is the between-cycles status: realtime when the channel is up,
// plain synced otherwise.
func (s *clientSyncService) idleStatus() models.SyncStatus {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.realtime {
		return models.StatusRealtime
	}
	return models.StatusSynced
}

// setStatus refreshes the pending counter and publishes the new state.
func (s *clientSyncService) setStatus(ctx context.Context, userID int64, status models.SyncStatus, cause error) {
	pendingCount, err := s.stores.OperationLog.PendingCount(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("pending count unavailable")
		pendingCount = -1
	}

	s.stateMu.Lock()
	s.state.Status = status
	if pendingCount >= 0 {
		s.state.PendingCount = pendingCount
	}
	if cause != nil {
		s.state.LastError = cause.Error()
	} else if status != models.StatusError {
		s.state.LastError = ""
	}
	state := s.state
	fn := s.onStatus
	s.stateMu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// publishStatus updates only the status field and notifies the subscriber.
func (s *clientSyncService) publishStatus(status models.SyncStatus, cause error) {
	s.stateMu.Lock()
	s.state.Status = status
	if cause != nil {
		s.state.LastError = cause.Error()
	}
	state := s.state
	fn := s.onStatus
	s.stateMu.Unlock()

	if fn != nil {
		fn(state)
	}
}
