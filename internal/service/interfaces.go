package service

import (
	"context"

	"github.com/aberthet/chantier-sync/models"
)

// SyncService is the server-side core of the sync engine: it accepts pushed
// operation batches, serves incremental and snapshot pulls, and settles
// surfaced conflicts.
type SyncService interface {
	// Push applies a batch of operations for the authenticated user. Each
	// operation is processed independently; the result partitions the batch
	// into applied, failed and conflicting operations.
	Push(ctx context.Context, userID int64, request models.PushRequest) (models.PushResult, error)

	// Pull returns the operations the device is missing. A since value below
	// the real-timestamp floor yields a full snapshot of live entities as
	// synthetic CREATE operations.
	Pull(ctx context.Context, userID int64, since int64, deviceID string) (models.PullResponse, error)

	// Resolve settles a previously surfaced conflict with the user's choice
	// and returns the resulting authoritative record.
	Resolve(ctx context.Context, userID int64, request models.ResolveRequest) (models.EntityRecord, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// Broadcaster fans an accepted operation out to the user's other connected
// devices. The sync service never blocks on delivery; implementations drop
// frames for slow consumers.
type Broadcaster interface {
	Broadcast(userID int64, excludeDeviceID string, op models.Operation)
}

// MetricsService exposes per-user sync counters for the status surface.
type MetricsService interface {
	Snapshot(userID int64) models.UserSyncMetrics
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
