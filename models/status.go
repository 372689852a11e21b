package models

import "time"

// SyncStatus is the user-visible state of the sync subsystem.
type SyncStatus string

const (
	StatusOffline  SyncStatus = "offline"
	StatusSyncing  SyncStatus = "syncing"
	StatusPulling  SyncStatus = "pulling"
	StatusSynced   SyncStatus = "synced"
	StatusRealtime SyncStatus = "realtime"
	StatusError    SyncStatus = "error"
)

// SyncState is the snapshot surfaced to the status indicator: the current
// phase, how many local operations still await acknowledgment, and the last
// error message if the previous cycle failed.
type SyncState struct {
	Status       SyncStatus `json:"status"`
	PendingCount int        `json:"pendingCount"`
	LastError    string     `json:"lastError,omitempty"`
	LastSyncAt   *time.Time `json:"lastSyncAt,omitempty"`
}
