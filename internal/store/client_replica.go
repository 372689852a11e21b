// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

const (
	upsertReplicaRecord = `
		INSERT INTO %s (user_id, entity_id, payload, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT (user_id, entity_id) DO UPDATE SET
			payload    = excluded.payload,
			updated_at = excluded.updated_at,
			deleted_at = NULL;`

	tombstoneReplicaRecord = `
		INSERT INTO %s (user_id, entity_id, payload, updated_at, deleted_at)
		VALUES (?, ?, '{}', ?, ?)
		ON CONFLICT (user_id, entity_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at;`

	getReplicaRecord = `
		SELECT user_id, entity_id, payload, updated_at, deleted_at
		FROM %s
		WHERE user_id = ? AND entity_id = ?;`

	listLiveReplicaRecords = `
		SELECT user_id, entity_id, payload, updated_at, deleted_at
		FROM %s
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY entity_id;`
)

// replicaRepository is the SQLite-backed implementation of
// [ReplicaRepository]. The table name is resolved through the kind registry;
// fmt.Sprintf only ever receives registry values, never caller input.
type replicaRepository struct {
	*DB
	logger *logger.Logger
}

// NewReplicaRepository constructs a [ReplicaRepository] backed by the local
// database.
func NewReplicaRepository(db *DB, logger *logger.Logger) ReplicaRepository {
	return &replicaRepository{DB: db, logger: logger}
}

// BeginTx implements [ReplicaRepository].
func (r *replicaRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	return tx, nil
}

// Get implements [ReplicaRepository].
func (r *replicaRepository) Get(ctx context.Context, kind models.EntityKind, userID int64, entityID string) (models.EntityRecord, error) {
	table, err := entityTable(kind)
	if err != nil {
		return models.EntityRecord{}, err
	}

	record := models.EntityRecord{Kind: kind}
	err = r.DB.QueryRowContext(ctx, fmt.Sprintf(getReplicaRecord, table), userID, entityID).Scan(
		&record.UserID,
		&record.EntityID,
		&record.Data,
		&record.UpdatedAt,
		&record.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.EntityRecord{}, ErrEntityNotFound
	}
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, nil
}

// UpsertBatch implements [ReplicaRepository].
func (r *replicaRepository) UpsertBatch(ctx context.Context, tx *sql.Tx, kind models.EntityKind, records []models.EntityRecord) error {
	if len(records) == 0 {
		return nil
	}

	table, err := entityTable(kind)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	query := fmt.Sprintf(upsertReplicaRecord, table)

	for _, record := range records {
		if err = r.exec(ctx, tx, query, record.UserID, record.EntityID, record.Data, record.UpdatedAt); err != nil {
			log.Err(err).
				Str("func", "replicaRepository.UpsertBatch").
				Str("entity_kind", string(kind)).
				Str("entity_id", record.EntityID).
				Msg("failed to upsert replica record")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

// SoftDeleteBatch implements [ReplicaRepository].
func (r *replicaRepository) SoftDeleteBatch(ctx context.Context, tx *sql.Tx, kind models.EntityKind, userID int64, entityIDs []string, deletedAt int64) error {
	if len(entityIDs) == 0 {
		return nil
	}

	table, err := entityTable(kind)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	query := fmt.Sprintf(tombstoneReplicaRecord, table)

	for _, entityID := range entityIDs {
		if err = r.exec(ctx, tx, query, userID, entityID, deletedAt, deletedAt); err != nil {
			log.Err(err).
				Str("func", "replicaRepository.SoftDeleteBatch").
				Str("entity_kind", string(kind)).
				Str("entity_id", entityID).
				Msg("failed to tombstone replica record")
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return nil
}

// ListLive implements [ReplicaRepository].
func (r *replicaRepository) ListLive(ctx context.Context, kind models.EntityKind, userID int64) ([]models.EntityRecord, error) {
	table, err := entityTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(listLiveReplicaRecords, table), userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.EntityRecord, 0, 32)
	for rows.Next() {
		record := models.EntityRecord{Kind: kind}
		if err = rows.Scan(&record.UserID, &record.EntityID, &record.Data, &record.UpdatedAt, &record.DeletedAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return records, nil
}

// exec routes a statement through tx when one is supplied, otherwise through
// the plain connection.
func (r *replicaRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = r.DB.ExecContext(ctx, query, args...)
	}
	return err
}
