package models

// UserSyncMetrics is a point-in-time snapshot of one user's sync counters,
// taken from the server's metrics store.
type UserSyncMetrics struct {
	UserID         int64 `json:"userId"`
	PushedOps      int64 `json:"pushedOps"`
	AppliedOps     int64 `json:"appliedOps"`
	Conflicts      int64 `json:"conflicts"`
	FailedOps      int64 `json:"failedOps"`
	Pulls          int64 `json:"pulls"`
	RealtimeFanout int64 `json:"realtimeFanout"`
	ActiveDevices  int   `json:"activeDevices"`
}
