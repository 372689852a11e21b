package service

import (
	"context"

	"github.com/aberthet/chantier-sync/models"
)

// StatusFunc receives every sync state transition. The TUI subscribes one;
// callbacks run on the sync goroutine and must not block.
type StatusFunc func(state models.SyncState)

// ClientAuthService is the client-side contract for account registration and
// login against the sync server. Both calls leave the adapter holding a
// bearer token on success.
type ClientAuthService interface {
	// Register creates the account on the server and returns the user with
	// the server-assigned id filled in.
	Register(ctx context.Context, user models.User) (models.User, error)

	// Login authenticates against the server and returns the user with the
	// server-assigned id filled in.
	Login(ctx context.Context, user models.User) (models.User, error)
}

// Reconciler applies a batch of remote operations to the local replica.
// Implementations must be safe to call from both the pull path and the
// realtime listener.
type Reconciler interface {
	// Reconcile orders, screens, and applies ops for userID in one local
	// transaction, reporting how many were applied, skipped by the conflict
	// guard, and failed.
	Reconcile(ctx context.Context, userID int64, ops []models.Operation) (ApplyReport, error)
}

// ApplyReport summarises one reconcile pass.
type ApplyReport struct {
	// Applied counts operations written to the replica.
	Applied int

	// Skipped counts remote operations dropped because an unsynced local
	// operation still touches the same entity.
	Skipped int

	// Failed counts operations that could not be written.
	Failed int
}

// ClientSyncService drives the push/pull cycle between the local operation
// log and the sync server.
type ClientSyncService interface {
	// Push sends the user's pending operations as one ordered batch and marks
	// the acknowledged subset synced. A no-op when nothing is pending.
	Push(ctx context.Context, userID int64) (models.PushResult, error)

	// Pull fetches operations past the stored checkpoint, reconciles them
	// into the replica, and unconditionally adopts the reply's server time as
	// the next checkpoint.
	Pull(ctx context.Context, userID int64) (ApplyReport, error)

	// Sync runs one full push-then-pull cycle followed by a retention purge
	// of old acknowledged operations. Re-entrant calls return immediately
	// while a cycle is in flight.
	Sync(ctx context.Context, userID int64) error

	// ApplyRemote feeds one realtime operation through the reconcile engine.
	ApplyRemote(ctx context.Context, userID int64, op models.Operation) error

	// ClearPending drops every unsynced local operation. Manual recovery for
	// a permanently stuck queue; the dropped mutations are lost.
	ClearPending(ctx context.Context, userID int64) (int64, error)

	// ForceFullResync resets the pull checkpoint to zero and runs a cycle, so
	// the next pull is a full snapshot.
	ForceFullResync(ctx context.Context, userID int64) error

	// State returns the current sync state snapshot.
	State() models.SyncState

	// OnStatusChange registers the state subscription. Must be called before
	// the first cycle.
	OnStatusChange(fn StatusFunc)

	// SetRealtimeConnected tells the service whether the realtime channel is
	// up, which flips the idle status between synced and realtime.
	SetRealtimeConnected(connected bool)
}

// ClientSyncJob schedules sync cycles in the background: a periodic timer,
// manual triggers, and an online-recovery trigger with a settle delay.
type ClientSyncJob interface {
	// Start launches the scheduler for userID. Any previously running job is
	// stopped first.
	Start(ctx context.Context, userID int64)

	// Stop terminates the scheduler and blocks until its goroutine exits.
	Stop()

	// SyncNow requests an immediate cycle, bypassing the timer.
	SyncNow()

	// NotifyOnline signals that network connectivity returned; a recovery
	// cycle is scheduled after the configured settle delay.
	NotifyOnline()
}
