// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// newClientTestDB opens an in-memory SQLite database with the full client
// schema applied, so the repository tests run against the real engine.
func newClientTestDB(t *testing.T) *DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	db := &DB{DB: conn, logger: logger.Nop()}
	require.NoError(t, bootstrapClientSchema(context.Background(), db, logger.Nop()))
	return db
}

func testOperation(id string, ts int64) models.Operation {
	return models.Operation{
		ID:        id,
		UserID:    1,
		DeviceID:  "device-a",
		Type:      models.OperationCreate,
		Entity:    models.EntityProject,
		EntityID:  "p1",
		Data:      models.Payload{"name": "Pont de Sully"},
		Timestamp: ts,
	}
}

func TestOperationLogAppendAndPending(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, testOperation("op-2", 200)))
	require.NoError(t, log.Append(ctx, testOperation("op-1", 100)))

	pending, err := log.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	// ordered by client timestamp, not insertion order
	assert.Equal(t, "op-1", pending[0].ID)
	assert.Equal(t, "op-2", pending[1].ID)

	count, err := log.PendingCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// another user sees nothing
	count, err = log.PendingCount(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOperationLogAppend_CanonicalizesEntityID(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	op := testOperation("op-1", 100)
	op.EntityID = "project_p1"
	require.NoError(t, log.Append(ctx, op))

	pending, err := log.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].EntityID)
}

func TestOperationLogMarkSynced(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, testOperation("op-1", 100)))
	require.NoError(t, log.Append(ctx, testOperation("op-2", 200)))

	require.NoError(t, log.MarkSynced(ctx, []string{"op-1"}, time.Now()))

	pending, err := log.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "op-2", pending[0].ID)
}

func TestOperationLogPurgeSyncedBefore(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, testOperation("op-1", 100)))
	require.NoError(t, log.Append(ctx, testOperation("op-2", 200)))
	require.NoError(t, log.MarkSynced(ctx, []string{"op-1", "op-2"}, time.Now().Add(-48*time.Hour)))

	purged, err := log.PurgeSyncedBefore(ctx, 1, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)

	// pending rows survive a purge regardless of age
	require.NoError(t, log.Append(ctx, testOperation("op-3", 50)))
	purged, err = log.PurgeSyncedBefore(ctx, 1, time.Now())
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestOperationLogClearPending(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	require.NoError(t, log.Append(ctx, testOperation("op-1", 100)))
	require.NoError(t, log.Append(ctx, testOperation("op-2", 200)))
	require.NoError(t, log.MarkSynced(ctx, []string{"op-1"}, time.Now()))

	cleared, err := log.ClearPending(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	count, err := log.PendingCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOperationLogPendingEntityKeys(t *testing.T) {
	db := newClientTestDB(t)
	log := NewOperationLog(db, logger.Nop())
	ctx := context.Background()

	opA := testOperation("op-1", 100)
	opB := testOperation("op-2", 200)
	opB.Entity = models.EntityPhoto
	opB.EntityID = "ph7"
	require.NoError(t, log.Append(ctx, opA))
	require.NoError(t, log.Append(ctx, opB))

	keys, err := log.PendingEntityKeys(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, keys, EntityKey(models.EntityProject, "p1"))
	assert.Contains(t, keys, EntityKey(models.EntityPhoto, "ph7"))
	assert.Len(t, keys, 2)
}

func TestReplicaRepositoryRoundTrip(t *testing.T) {
	db := newClientTestDB(t)
	repo := NewReplicaRepository(db, logger.Nop())
	ctx := context.Background()

	record := models.EntityRecord{
		UserID:    1,
		EntityID:  "p1",
		Kind:      models.EntityProject,
		Data:      models.Payload{"name": "Pont de Sully"},
		UpdatedAt: 100,
	}
	require.NoError(t, repo.UpsertBatch(ctx, nil, models.EntityProject, []models.EntityRecord{record}))

	got, err := repo.Get(ctx, models.EntityProject, 1, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pont de Sully", got.Data["name"])
	assert.Equal(t, int64(100), got.UpdatedAt)
	assert.False(t, got.Deleted())
}

func TestReplicaRepositoryTombstoneAndResurrect(t *testing.T) {
	db := newClientTestDB(t)
	repo := NewReplicaRepository(db, logger.Nop())
	ctx := context.Background()

	record := models.EntityRecord{
		UserID: 1, EntityID: "b1", Kind: models.EntityBordereau,
		Data: models.Payload{"designation": "Terrassement"}, UpdatedAt: 100,
	}
	require.NoError(t, repo.UpsertBatch(ctx, nil, models.EntityBordereau, []models.EntityRecord{record}))
	require.NoError(t, repo.SoftDeleteBatch(ctx, nil, models.EntityBordereau, 1, []string{"b1"}, 200))

	got, err := repo.Get(ctx, models.EntityBordereau, 1, "b1")
	require.NoError(t, err)
	assert.True(t, got.Deleted())

	live, err := repo.ListLive(ctx, models.EntityBordereau, 1)
	require.NoError(t, err)
	assert.Empty(t, live)

	// a later upsert clears the tombstone
	record.UpdatedAt = 300
	require.NoError(t, repo.UpsertBatch(ctx, nil, models.EntityBordereau, []models.EntityRecord{record}))
	got, err = repo.Get(ctx, models.EntityBordereau, 1, "b1")
	require.NoError(t, err)
	assert.False(t, got.Deleted())
	assert.Equal(t, int64(300), got.UpdatedAt)
}

func TestReplicaRepositoryTombstoneUnknownEntity(t *testing.T) {
	db := newClientTestDB(t)
	repo := NewReplicaRepository(db, logger.Nop())
	ctx := context.Background()

	// delete of a never-seen entity still lands: the id stays known
	require.NoError(t, repo.SoftDeleteBatch(ctx, nil, models.EntityMetre, 1, []string{"m9"}, 200))

	got, err := repo.Get(ctx, models.EntityMetre, 1, "m9")
	require.NoError(t, err)
	assert.True(t, got.Deleted())
}

func TestReplicaRepositoryBatchInTx(t *testing.T) {
	db := newClientTestDB(t)
	repo := NewReplicaRepository(db, logger.Nop())
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)

	records := []models.EntityRecord{
		{UserID: 1, EntityID: "p1", Kind: models.EntityProject, Data: models.Payload{}, UpdatedAt: 100},
		{UserID: 1, EntityID: "p2", Kind: models.EntityProject, Data: models.Payload{}, UpdatedAt: 110},
	}
	require.NoError(t, repo.UpsertBatch(ctx, tx, models.EntityProject, records))
	require.NoError(t, tx.Commit())

	live, err := repo.ListLive(ctx, models.EntityProject, 1)
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

func TestMetaRepositoryDeviceID(t *testing.T) {
	db := newClientTestDB(t)
	meta := NewMetaRepository(db, logger.Nop())
	ctx := context.Background()

	first, err := meta.DeviceID(ctx, models.ClientDesktop)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// stable across calls
	again, err := meta.DeviceID(ctx, models.ClientDesktop)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// but distinct per client kind
	browser, err := meta.DeviceID(ctx, models.ClientBrowser)
	require.NoError(t, err)
	assert.NotEqual(t, first, browser)
}

func TestMetaRepositoryCheckpoint(t *testing.T) {
	db := newClientTestDB(t)
	meta := NewMetaRepository(db, logger.Nop())
	ctx := context.Background()

	checkpoint, err := meta.Checkpoint(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, checkpoint)

	require.NoError(t, meta.SetCheckpoint(ctx, 1, 1700000000123))
	checkpoint, err = meta.Checkpoint(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), checkpoint)

	// checkpoints are per user
	other, err := meta.Checkpoint(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, other)

	require.NoError(t, meta.ResetCheckpoint(ctx, 1))
	checkpoint, err = meta.Checkpoint(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, checkpoint)
}
