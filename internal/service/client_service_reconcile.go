// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/models"
)

// reconciler is the concrete [Reconciler] over the local replica. A batch is
// applied in one SQLite transaction; operations are grouped into bulk writes
// and degraded to per-operation writes only when a bulk statement fails, so a
// single poisoned payload cannot sink the whole pull.
type reconciler struct {
	replica store.ReplicaRepository
	oplog   store.OperationLog
	logger  *logger.Logger
}

// NewReconciler constructs a [Reconciler] over the client's replica and
// operation log.
func NewReconciler(replica store.ReplicaRepository, oplog store.OperationLog, logger *logger.Logger) Reconciler {
	return &reconciler{replica: replica, oplog: oplog, logger: logger}
}

// applyGroup is one run of operations sharing an entity kind and operation
// type, written with a single bulk statement.
type applyGroup struct {
	kind models.EntityKind
	typ  models.OperationType
	ops  []models.Operation
}

// Reconcile implements [Reconciler].
//
// The batch goes through four stages: normalization (canonical entity ids,
// canonical payload references), the conflict screen (remote operations
// touching an entity with an unsynced local edit are skipped so the local
// edit wins until it is pushed), ordering (CREATE < UPDATE < DELETE, ties by
// ascending client timestamp), and grouped application inside one
// transaction. An UPDATE of an entity the replica has never seen
// materializes it; the replica must converge even when it joined late.
func (r *reconciler) Reconcile(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error) {
	var report ApplyReport
	if len(ops) == 0 {
		return report, nil
	}

	pendingKeys, err := r.oplog.PendingEntityKeys(ctx, userID)
	if err != nil {
		return report, fmt.Errorf("loading pending entity keys: %w", err)
	}

	batch := make([]models.Operation, 0, len(ops))
	for _, op := range ops {
		op.UserID = userID
		op.EntityID = utils.CanonicalEntityID(op.Entity, op.EntityID)
		op.Data = utils.NormalizePayloadRefs(op.Data.Clone())

		if !op.Type.Valid() {
			report.Failed++
			continue
		}
		if _, held := pendingKeys[store.EntityKey(op.Entity, op.EntityID)]; held {
			r.logger.Debug().
				Str("entity", string(op.Entity)).
				Str("entity_id", op.EntityID).
				Msg("remote operation skipped, local edit pending")
			report.Skipped++
			continue
		}
		batch = append(batch, op)
	}
	if len(batch) == 0 {
		return report, nil
	}

	models.SortOperationsForApply(batch)

	tx, err := r.replica.BeginTx(ctx)
	if err != nil {
		return report, fmt.Errorf("beginning reconcile transaction: %w", err)
	}

	for _, group := range groupForApply(batch) {
		applied, failed := r.applyGroup(ctx, tx, userID, group)
		report.Applied += applied
		report.Failed += failed
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return ApplyReport{Failed: len(ops)}, fmt.Errorf("committing reconcile transaction: %w", err)
	}
	return report, nil
}

// groupForApply splits a sorted batch into runs sharing (kind, type),
// preserving the apply order between runs.
func groupForApply(batch []models.Operation) []applyGroup {
	groups := make([]applyGroup, 0, 8)
	for _, op := range batch {
		n := len(groups)
		if n == 0 || groups[n-1].kind != op.Entity || groups[n-1].typ != op.Type {
			groups = append(groups, applyGroup{kind: op.Entity, typ: op.Type})
			n++
		}
		groups[n-1].ops = append(groups[n-1].ops, op)
	}
	return groups
}

// applyGroup writes one run in bulk, falling back to per-operation writes
// when the bulk statement fails.
func (r *reconciler) applyGroup(ctx context.Context, tx *sql.Tx, userID int64, group applyGroup) (applied, failed int) {
	if err := r.writeGroup(ctx, tx, userID, group); err == nil {
		return len(group.ops), 0
	}

	for _, op := range group.ops {
		single := applyGroup{kind: group.kind, typ: group.typ, ops: []models.Operation{op}}
		if err := r.writeGroup(ctx, tx, userID, single); err != nil {
			r.logger.Warn().
				Err(err).
				Str("operation_id", op.ID).
				Str("entity", string(op.Entity)).
				Str("entity_id", op.EntityID).
				Msg("remote operation could not be applied")
			failed++
			continue
		}
		applied++
	}
	return applied, failed
}

func (r *reconciler) writeGroup(ctx context.Context, tx *sql.Tx, userID int64, group applyGroup) error {
	if group.typ == models.OperationDelete {
		ids := make([]string, 0, len(group.ops))
		for _, op := range group.ops {
			ids = append(ids, op.EntityID)
		}
		// the batch is timestamp-sorted, so the last operation carries the
		// newest tombstone stamp for the run
		deletedAt := group.ops[len(group.ops)-1].Timestamp
		return r.replica.SoftDeleteBatch(ctx, tx, group.kind, userID, ids, deletedAt)
	}

	records := make([]models.EntityRecord, 0, len(group.ops))
	for _, op := range group.ops {
		records = append(records, models.EntityRecord{
			UserID:    userID,
			EntityID:  op.EntityID,
			Kind:      op.Entity,
			Data:      op.Data,
			UpdatedAt: op.Timestamp,
		})
	}
	return r.replica.UpsertBatch(ctx, tx, group.kind, records)
}
