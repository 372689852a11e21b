package store

import (
	"context"
	"database/sql"

	"github.com/aberthet/chantier-sync/models"
)

// UserRepository persists user accounts on the server.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// EntityRepository is the authoritative per-kind entity store. One
// implementation serves every kind through the table registry; callers pass
// the kind explicitly on each call. Write methods accept an optional
// transaction so the sync service can commit the entity mutation and the
// replay append as one unit; pass nil to run standalone.
type EntityRepository interface {
	// InTx runs fn inside one database transaction, committing on nil and
	// rolling back on error.
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	// Get loads the authoritative record, tombstoned or not.
	// Returns ErrEntityNotFound when no row exists.
	Get(ctx context.Context, kind models.EntityKind, userID int64, entityID string) (models.EntityRecord, error)

	// Upsert inserts or replaces the record, clearing any tombstone. The
	// payload must already be allow-listed and reference-normalized.
	Upsert(ctx context.Context, tx *sql.Tx, record models.EntityRecord) error

	// SoftDelete stamps the tombstone without removing the row. Deleting a
	// missing record is a no-op (the delete still wins on other devices).
	SoftDelete(ctx context.Context, tx *sql.Tx, kind models.EntityKind, userID int64, entityID string, deletedAt int64) error

	// ListLive returns every non-tombstoned record of one kind for the user;
	// the source of full-snapshot pulls.
	ListLive(ctx context.Context, kind models.EntityKind, userID int64) ([]models.EntityRecord, error)
}

// OperationRepository is the durable replay log of accepted operations.
type OperationRepository interface {
	// Append stores one accepted operation with its server-applied time,
	// inside tx when one is given.
	Append(ctx context.Context, tx *sql.Tx, op models.Operation) error

	// ListSince returns operations with server_ts > since originating from a
	// device other than excludeDeviceID, ascending by server_ts.
	ListSince(ctx context.Context, userID int64, since int64, excludeDeviceID string) ([]models.Operation, error)

	// MarkResolved flags every replay record touching the entity as manually
	// resolved.
	MarkResolved(ctx context.Context, userID int64, kind models.EntityKind, entityID string) error

	// PruneBefore removes replay records with server_ts below the horizon.
	// Returns the number of rows removed.
	PruneBefore(ctx context.Context, horizon int64) (int64, error)
}
