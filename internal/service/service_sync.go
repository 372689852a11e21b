// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dario.cat/mergo"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/internal/validators"
	"github.com/aberthet/chantier-sync/models"
)

// minRealTimestamp is the epoch-millisecond floor below which a pull
// checkpoint cannot be an actual server time (2001-09-09). A since value
// under it marks a device that has never synced, so the pull degrades to a
// full snapshot instead of an empty incremental reply.
const minRealTimestamp = int64(1_000_000_000_000)

// syncService is the concrete implementation of [SyncService]. Conflict
// resolution is last-writer-wins on client timestamps: a pushed operation
// must be strictly newer than the authoritative record or it is surfaced as
// a conflict with both payloads attached.
type syncService struct {
	entities    store.EntityRepository
	oplog       store.OperationRepository
	validator   validators.Validator
	broadcaster Broadcaster
	metrics     *SyncMetrics
	uuid        *utils.UUIDGenerator
	logger      *logger.Logger

	// now returns the current epoch-millisecond time; replaceable in tests.
	now func() int64
}

// NewSyncService constructs a [SyncService] over the authoritative entity
// store and replay log. broadcaster may be nil when no realtime channel is
// wired (tests, batch tools).
func NewSyncService(entities store.EntityRepository, oplog store.OperationRepository, broadcaster Broadcaster, metrics *SyncMetrics, logger *logger.Logger) SyncService {
	nowMillis := func() int64 { return time.Now().UnixMilli() }
	return &syncService{
		entities:    entities,
		oplog:       oplog,
		validator:   validators.NewSyncValidator(nowMillis),
		broadcaster: broadcaster,
		metrics:     metrics,
		uuid:        utils.NewUUIDGenerator(),
		logger:      logger,
		now:         nowMillis,
	}
}

// Push implements [SyncService]. Operations are applied independently: one
// bad operation lands in Failed (or Conflicts) without blocking the rest of
// the batch.
func (s *syncService) Push(ctx context.Context, userID int64, request models.PushRequest) (models.PushResult, error) {
	log := logger.FromContext(ctx)

	result := models.PushResult{
		Success:   []string{},
		Failed:    []models.OperationError{},
		Conflicts: []models.OperationConflict{},
	}

	if err := s.validator.Validate(ctx, request, validators.FieldDeviceID); err != nil {
		return result, fmt.Errorf("push rejected: %w", err)
	}

	for _, op := range request.Operations {
		op.UserID = userID
		op.DeviceID = request.DeviceID
		op.EntityID = utils.CanonicalEntityID(op.Entity, op.EntityID)

		if err := s.validator.Validate(ctx, op); err != nil {
			result.Failed = append(result.Failed, models.OperationError{ID: op.ID, Error: err.Error()})
			continue
		}

		authoritative, found, err := s.loadAuthoritative(ctx, op.Entity, userID, op.EntityID)
		if err != nil {
			log.Err(err).
				Str("func", "syncService.Push").
				Str("operation_id", op.ID).
				Msg("failed to load authoritative record")
			result.Failed = append(result.Failed, models.OperationError{ID: op.ID, Error: err.Error()})
			continue
		}

		// last-writer-wins: the challenger must be strictly newer
		if found && op.Timestamp <= authoritative.UpdatedAt {
			result.Conflicts = append(result.Conflicts, models.OperationConflict{
				ID:         op.EntityID,
				Entity:     op.Entity,
				LocalData:  op.Data,
				RemoteData: authoritative.Data,
			})
			continue
		}

		if err := s.apply(ctx, op); err != nil {
			log.Err(err).
				Str("func", "syncService.Push").
				Str("operation_id", op.ID).
				Msg("failed to apply operation")
			result.Failed = append(result.Failed, models.OperationError{ID: op.ID, Error: err.Error()})
			continue
		}

		result.Success = append(result.Success, op.EntityID)
	}

	s.metrics.RecordPush(userID, request.DeviceID, len(result.Success), len(result.Conflicts), len(result.Failed))
	return result, nil
}

// loadAuthoritative fetches the current record, distinguishing "not found"
// from a real storage failure.
func (s *syncService) loadAuthoritative(ctx context.Context, kind models.EntityKind, userID int64, entityID string) (models.EntityRecord, bool, error) {
	record, err := s.entities.Get(ctx, kind, userID, entityID)
	if errors.Is(err, store.ErrEntityNotFound) {
		return models.EntityRecord{}, false, nil
	}
	if err != nil {
		return models.EntityRecord{}, false, err
	}
	return record, true, nil
}

// apply writes one accepted operation: mutate the authoritative store and
// append to the replay log in one transaction, then fan out to other devices.
// The entity mutation and the replay record commit or roll back together; a
// half-applied operation would win the LWW comparison against its own retry
// while staying invisible to sibling devices.
func (s *syncService) apply(ctx context.Context, op models.Operation) error {
	op.ServerTime = s.now()

	err := s.entities.InTx(ctx, func(tx *sql.Tx) error {
		if op.Type == models.OperationDelete {
			if err := s.entities.SoftDelete(ctx, tx, op.Entity, op.UserID, op.EntityID, op.Timestamp); err != nil {
				return err
			}
		} else {
			record := models.EntityRecord{
				UserID:    op.UserID,
				EntityID:  op.EntityID,
				Kind:      op.Entity,
				Data:      utils.NormalizePayloadRefs(models.FilterPayload(op.Entity, op.Data)),
				UpdatedAt: op.Timestamp,
			}
			if err := s.entities.Upsert(ctx, tx, record); err != nil {
				return err
			}
		}
		return s.oplog.Append(ctx, tx, op)
	})
	if err != nil {
		return err
	}

	// only committed operations reach the realtime channel
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(op.UserID, op.DeviceID, op)
	}
	return nil
}

// Pull implements [SyncService]. The reply always carries the current server
// time: a device adopts it as its next checkpoint even when no operations
// are returned, so the checkpoint never starves.
func (s *syncService) Pull(ctx context.Context, userID int64, since int64, deviceID string) (models.PullResponse, error) {
	serverTime := s.now()
	s.metrics.RecordPull(userID, deviceID)

	if since < minRealTimestamp {
		ops, err := s.snapshot(ctx, userID)
		if err != nil {
			return models.PullResponse{}, err
		}
		return models.PullResponse{Operations: ops, ServerTime: serverTime}, nil
	}

	ops, err := s.oplog.ListSince(ctx, userID, since, deviceID)
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("listing operations since %d: %w", since, err)
	}
	return models.PullResponse{Operations: ops, ServerTime: serverTime}, nil
}

// snapshot renders every live entity as a synthetic CREATE operation.
// Tombstoned records are omitted: a device starting from scratch has nothing
// to delete.
func (s *syncService) snapshot(ctx context.Context, userID int64) ([]models.Operation, error) {
	ops := make([]models.Operation, 0, 128)
	for _, kind := range models.EntityKinds {
		records, err := s.entities.ListLive(ctx, kind, userID)
		if err != nil {
			return nil, fmt.Errorf("snapshot of %s failed: %w", kind, err)
		}
		for _, record := range records {
			ops = append(ops, models.Operation{
				ID:         fmt.Sprintf("snapshot-%s-%s", kind, record.EntityID),
				Type:       models.OperationCreate,
				Entity:     kind,
				EntityID:   record.EntityID,
				Data:       record.Data,
				Timestamp:  record.UpdatedAt,
				ServerTime: record.UpdatedAt,
			})
		}
	}
	return ops, nil
}

// Resolve implements [SyncService].
func (s *syncService) Resolve(ctx context.Context, userID int64, request models.ResolveRequest) (models.EntityRecord, error) {
	if err := s.validator.Validate(ctx, request); err != nil {
		return models.EntityRecord{}, fmt.Errorf("resolve rejected: %w", err)
	}

	entityID := utils.CanonicalEntityID(request.Entity, request.EntityID)
	authoritative, found, err := s.loadAuthoritative(ctx, request.Entity, userID, entityID)
	if err != nil {
		return models.EntityRecord{}, err
	}

	var data models.Payload
	switch request.Resolution {
	case models.ResolutionRemote:
		// keep the authoritative record, nothing is written
		if !found {
			return models.EntityRecord{}, ErrNothingToResolve
		}
		if err := s.oplog.MarkResolved(ctx, userID, request.Entity, entityID); err != nil {
			return models.EntityRecord{}, err
		}
		return authoritative, nil

	case models.ResolutionLocal:
		data = request.MergedData.Clone()

	case models.ResolutionMerge:
		data = authoritative.Data.Clone()
		if data == nil {
			data = models.Payload{}
		}
		if err := mergo.Merge(&data, request.MergedData, mergo.WithOverride); err != nil {
			return models.EntityRecord{}, fmt.Errorf("merging payloads: %w", err)
		}

	default:
		return models.EntityRecord{}, ErrUnknownResolution
	}

	// the resolution re-applies as a fresh write, bypassing the timestamp
	// check the original operation lost
	op := models.Operation{
		ID:        s.uuid.Generate(),
		UserID:    userID,
		Type:      models.OperationUpdate,
		Entity:    request.Entity,
		EntityID:  entityID,
		Data:      utils.NormalizePayloadRefs(models.FilterPayload(request.Entity, data)),
		Timestamp: s.now(),
	}
	if err := s.apply(ctx, op); err != nil {
		return models.EntityRecord{}, err
	}
	if err := s.oplog.MarkResolved(ctx, userID, request.Entity, entityID); err != nil {
		return models.EntityRecord{}, err
	}

	return models.EntityRecord{
		UserID:    userID,
		EntityID:  entityID,
		Kind:      request.Entity,
		Data:      op.Data,
		UpdatedAt: op.Timestamp,
	}, nil
}
