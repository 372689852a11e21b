package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/aberthet/chantier-sync/models"
)

// OperationLog is the append-only record of local mutations awaiting
// transmission. Appends are safe concurrently with an in-flight push/pull
// cycle; the UI is never blocked by sync.
type OperationLog interface {
	// Append records one local mutation with Synced=false.
	Append(ctx context.Context, op models.Operation) error

	// Pending returns the user's not-yet-synced operations ordered by
	// ascending timestamp.
	Pending(ctx context.Context, userID int64) ([]models.Operation, error)

	// PendingCount returns the number of not-yet-synced operations.
	PendingCount(ctx context.Context, userID int64) (int, error)

	// PendingEntityKeys returns the set of kind/id pairs touched by pending
	// operations, used by the reconcile conflict screen. Keys are built with
	// [EntityKey].
	PendingEntityKeys(ctx context.Context, userID int64) (map[string]struct{}, error)

	// MarkSynced flags the operations with the given ids as acknowledged.
	MarkSynced(ctx context.Context, ids []string, at time.Time) error

	// PurgeSyncedBefore removes acknowledged operations older than horizon.
	PurgeSyncedBefore(ctx context.Context, userID int64, horizon time.Time) (int64, error)

	// ClearPending drops every unsynced operation; the manual recovery path
	// for a permanently stuck queue.
	ClearPending(ctx context.Context, userID int64) (int64, error)
}

// ReplicaRepository is the client's materialized view of all entities.
// Batch methods accept an optional transaction so the reconcile engine can
// span every touched table in one commit; pass nil to run standalone.
type ReplicaRepository interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Get loads one local record, tombstoned or not.
	// Returns ErrEntityNotFound when no row exists.
	Get(ctx context.Context, kind models.EntityKind, userID int64, entityID string) (models.EntityRecord, error)

	// UpsertBatch inserts or replaces records of one kind, clearing
	// tombstones.
	UpsertBatch(ctx context.Context, tx *sql.Tx, kind models.EntityKind, records []models.EntityRecord) error

	// SoftDeleteBatch tombstones records of one kind.
	SoftDeleteBatch(ctx context.Context, tx *sql.Tx, kind models.EntityKind, userID int64, entityIDs []string, deletedAt int64) error

	// ListLive returns every non-tombstoned local record of one kind.
	ListLive(ctx context.Context, kind models.EntityKind, userID int64) ([]models.EntityRecord, error)
}

// MetaRepository persists the small per-device values: device identity and
// the sync checkpoint.
type MetaRepository interface {
	// DeviceID returns the persisted device identity for the client kind,
	// generating and storing one on first run.
	DeviceID(ctx context.Context, kind models.ClientKind) (string, error)

	// Checkpoint returns the user's last adopted server time, 0 if never
	// synced.
	Checkpoint(ctx context.Context, userID int64) (int64, error)

	// SetCheckpoint stores the new checkpoint. Values only move forward
	// except through ResetCheckpoint.
	SetCheckpoint(ctx context.Context, userID int64, value int64) error

	// ResetCheckpoint forces the checkpoint back to zero so the next pull is
	// a full snapshot.
	ResetCheckpoint(ctx context.Context, userID int64) error
}

// EntityKey builds the map key used by the conflict screen: one entity id
// can exist in several kinds, so the kind is part of the key. Both sides are
// canonicalized by the callers before keying.
func EntityKey(kind models.EntityKind, entityID string) string {
	return string(kind) + "/" + entityID
}
