// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/models"
)

// operationLog is the SQLite-backed implementation of [OperationLog].
type operationLog struct {
	*DB
	logger *logger.Logger
}

// NewOperationLog constructs an [OperationLog] backed by the local database.
func NewOperationLog(db *DB, logger *logger.Logger) OperationLog {
	return &operationLog{DB: db, logger: logger}
}

// Append implements [OperationLog]. The entity id is canonicalized before
// the row is written; the log never holds a prefixed id.
func (l *operationLog) Append(ctx context.Context, op models.Operation) error {
	log := logger.FromContext(ctx)

	entityID := utils.CanonicalEntityID(op.Entity, op.EntityID)
	_, err := l.DB.ExecContext(ctx, appendOperation,
		op.ID,
		op.UserID,
		op.DeviceID,
		string(op.Type),
		string(op.Entity),
		entityID,
		op.Data,
		op.Timestamp,
	)
	if err != nil {
		log.Err(err).
			Str("func", "operationLog.Append").
			Str("operation_id", op.ID).
			Msg("failed to append local operation")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Pending implements [OperationLog].
func (l *operationLog) Pending(ctx context.Context, userID int64) ([]models.Operation, error) {
	rows, err := l.DB.QueryContext(ctx, selectPendingOperations, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ops := make([]models.Operation, 0, 16)
	for rows.Next() {
		var op models.Operation
		if err = rows.Scan(&op.ID, &op.UserID, &op.DeviceID, &op.Type, &op.Entity, &op.EntityID, &op.Data, &op.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return ops, nil
}

// PendingCount implements [OperationLog].
func (l *operationLog) PendingCount(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := l.DB.QueryRowContext(ctx, countPendingOperations, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return count, nil
}

// PendingEntityKeys implements [OperationLog].
func (l *operationLog) PendingEntityKeys(ctx context.Context, userID int64) (map[string]struct{}, error) {
	rows, err := l.DB.QueryContext(ctx, selectPendingEntityKeys, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var kind models.EntityKind
		var entityID string
		if err = rows.Scan(&kind, &entityID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		keys[EntityKey(kind, utils.CanonicalEntityID(kind, entityID))] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return keys, nil
}

// MarkSynced implements [OperationLog].
func (l *operationLog) MarkSynced(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)

	tx, err := l.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, markOperationSynced, at, id); err != nil {
			log.Err(err).
				Str("func", "operationLog.MarkSynced").
				Str("operation_id", id).
				Msg("failed to mark operation synced")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

// PurgeSyncedBefore implements [OperationLog].
func (l *operationLog) PurgeSyncedBefore(ctx context.Context, userID int64, horizon time.Time) (int64, error) {
	res, err := l.DB.ExecContext(ctx, purgeSyncedOperations, userID, horizon)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	purged, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return purged, nil
}

// ClearPending implements [OperationLog].
func (l *operationLog) ClearPending(ctx context.Context, userID int64) (int64, error) {
	res, err := l.DB.ExecContext(ctx, clearPendingOperations, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return cleared, nil
}
