// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// operationRepository is the PostgreSQL-backed implementation of
// [OperationRepository], working against the sync_operations replay log.
type operationRepository struct {
	*DB
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewOperationRepository constructs an [OperationRepository] backed by the
// provided database connection and logger.
func NewOperationRepository(db *DB, logger *logger.Logger) OperationRepository {
	return &operationRepository{
		DB:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// exec routes a statement through tx when one is open, else the pool.
func (r *operationRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.DB.ExecContext(ctx, query, args...)
}

// Append implements [OperationRepository].
func (r *operationRepository) Append(ctx context.Context, tx *sql.Tx, op models.Operation) error {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Insert("sync_operations").
		Columns("id", "user_id", "device_id", "op_type", "entity_kind", "entity_id", "payload", "client_ts", "server_ts").
		Values(op.ID, op.UserID, op.DeviceID, string(op.Type), string(op.Entity), op.EntityID, op.Data, op.Timestamp, op.ServerTime).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.exec(ctx, tx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "operationRepository.Append").
			Str("operation_id", op.ID).
			Msg("failed to append replay record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrOperationNotSaved
	}
	return nil
}

// ListSince implements [OperationRepository]. Rows from the calling device
// are excluded so a device never re-receives its own pushes.
func (r *operationRepository) ListSince(ctx context.Context, userID int64, since int64, excludeDeviceID string) ([]models.Operation, error) {
	log := logger.FromContext(ctx)

	q := r.builder.
		Select("id", "user_id", "device_id", "op_type", "entity_kind", "entity_id", "payload", "client_ts", "server_ts").
		From("sync_operations").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Gt{"server_ts": since}).
		OrderBy("server_ts ASC")
	if excludeDeviceID != "" {
		q = q.Where(sq.NotEq{"device_id": excludeDeviceID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "operationRepository.ListSince").
			Int64("user_id", userID).
			Int64("since", since).
			Msg("failed to list replay records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	ops := make([]models.Operation, 0, 100)
	for rows.Next() {
		var op models.Operation
		if err = rows.Scan(&op.ID, &op.UserID, &op.DeviceID, &op.Type, &op.Entity, &op.EntityID, &op.Data, &op.Timestamp, &op.ServerTime); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return ops, nil
}

// MarkResolved implements [OperationRepository].
func (r *operationRepository) MarkResolved(ctx context.Context, userID int64, kind models.EntityKind, entityID string) error {
	query, args, err := r.builder.
		Update("sync_operations").
		Set("resolved", true).
		Where(sq.Eq{"user_id": userID, "entity_kind": string(kind), "entity_id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// PruneBefore implements [OperationRepository].
func (r *operationRepository) PruneBefore(ctx context.Context, horizon int64) (int64, error) {
	query, args, err := r.builder.
		Delete("sync_operations").
		Where(sq.Lt{"server_ts": horizon}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return pruned, nil
}
