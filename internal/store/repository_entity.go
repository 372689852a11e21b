// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// entityRepository is the PostgreSQL-backed implementation of
// [EntityRepository]. All nine entity kinds share it; the target table is
// resolved per call through the kind registry, never interpolated from
// caller input.
//
// Queries are built with squirrel so the shape stays identical across kinds
// while the table name varies.
type entityRepository struct {
	*DB
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

// NewEntityRepository constructs an [EntityRepository] backed by the provided
// database connection and logger.
func NewEntityRepository(db *DB, logger *logger.Logger) EntityRepository {
	return &entityRepository{
		DB:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// InTx implements [EntityRepository].
func (r *entityRepository) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

// exec routes a statement through tx when one is open, else the pool.
func (r *entityRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.DB.ExecContext(ctx, query, args...)
}

// Get implements [EntityRepository].
func (r *entityRepository) Get(ctx context.Context, kind models.EntityKind, userID int64, entityID string) (models.EntityRecord, error) {
	log := logger.FromContext(ctx)

	table, err := entityTable(kind)
	if err != nil {
		return models.EntityRecord{}, err
	}

	query, args, err := r.builder.
		Select("user_id", "entity_id", "payload", "updated_at", "deleted_at").
		From(table).
		Where(sq.Eq{"user_id": userID, "entity_id": entityID}).
		ToSql()
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	record := models.EntityRecord{Kind: kind}
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(
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
		log.Err(err).
			Str("func", "entityRepository.Get").
			Str("entity_kind", string(kind)).
			Str("entity_id", entityID).
			Msg("failed to load entity record")
		return models.EntityRecord{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return record, nil
}

// Upsert implements [EntityRepository]. A row that reappears via CREATE or
// UPDATE loses its tombstone: deleted_at is reset to NULL.
func (r *entityRepository) Upsert(ctx context.Context, tx *sql.Tx, record models.EntityRecord) error {
	log := logger.FromContext(ctx)

	table, err := entityTable(record.Kind)
	if err != nil {
		return err
	}

	query, args, err := r.builder.
		Insert(table).
		Columns("user_id", "entity_id", "payload", "updated_at", "deleted_at").
		Values(record.UserID, record.EntityID, record.Data, record.UpdatedAt, nil).
		Suffix(`ON CONFLICT (user_id, entity_id) DO UPDATE
			SET payload = EXCLUDED.payload,
			    updated_at = EXCLUDED.updated_at,
			    deleted_at = NULL`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.exec(ctx, tx, query, args...); err != nil {
		log.Err(err).
			Str("func", "entityRepository.Upsert").
			Str("entity_kind", string(record.Kind)).
			Str("entity_id", record.EntityID).
			Msg("failed to upsert entity record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// SoftDelete implements [EntityRepository]. The row is kept so the id stays
// known; a missing row is inserted as a bare tombstone, which prevents a
// later out-of-order CREATE from resurrecting the entity on snapshot pulls.
func (r *entityRepository) SoftDelete(ctx context.Context, tx *sql.Tx, kind models.EntityKind, userID int64, entityID string, deletedAt int64) error {
	log := logger.FromContext(ctx)

	table, err := entityTable(kind)
	if err != nil {
		return err
	}

	query, args, err := r.builder.
		Insert(table).
		Columns("user_id", "entity_id", "payload", "updated_at", "deleted_at").
		Values(userID, entityID, models.Payload{}, deletedAt, deletedAt).
		Suffix(`ON CONFLICT (user_id, entity_id) DO UPDATE
			SET updated_at = EXCLUDED.updated_at,
			    deleted_at = EXCLUDED.deleted_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.exec(ctx, tx, query, args...); err != nil {
		log.Err(err).
			Str("func", "entityRepository.SoftDelete").
			Str("entity_kind", string(kind)).
			Str("entity_id", entityID).
			Msg("failed to soft-delete entity record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// ListLive implements [EntityRepository]. Tombstoned rows are excluded here
// so a full-snapshot pull can never resurrect a deleted entity on another
// device.
func (r *entityRepository) ListLive(ctx context.Context, kind models.EntityKind, userID int64) ([]models.EntityRecord, error) {
	log := logger.FromContext(ctx)

	table, err := entityTable(kind)
	if err != nil {
		return nil, err
	}

	query, args, err := r.builder.
		Select("user_id", "entity_id", "payload", "updated_at", "deleted_at").
		From(table).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"deleted_at": nil}).
		OrderBy("entity_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entityRepository.ListLive").
			Str("entity_kind", string(kind)).
			Int64("user_id", userID).
			Msg("failed to list live entity records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.EntityRecord, 0, 50)
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
