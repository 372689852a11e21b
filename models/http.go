// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package models

// PushRequest is the batch of pending operations a device sends to the
// server. Operations are processed independently; the batch is a transport
// grouping, not a transaction.
type PushRequest struct {
	// Operations is the ordered list of not-yet-synced operations.
	Operations []Operation `json:"operations"`

	// DeviceID identifies the pushing device so the server can exclude it
	// from rebroadcasts and incremental pulls.
	DeviceID string `json:"deviceId"`
}

// OperationError reports one operation that could not be applied. The
// operation stays pending on the client until it succeeds on a later push or
// the user clears the queue.
type OperationError struct {
	// ID is the operation id (not the entity id) that failed.
	ID string `json:"id"`

	// Error is a human-readable reason suitable for the status surface.
	Error string `json:"error"`
}

// OperationConflict reports one operation rejected by the last-writer-wins
// screen. Both payloads are returned so the client can present a choice.
type OperationConflict struct {
	// ID is the rejected operation's entity id.
	ID string `json:"id"`

	// Entity is the kind of the conflicting entity.
	Entity EntityKind `json:"entity"`

	// LocalData is the payload the client sent.
	LocalData Payload `json:"localData"`

	// RemoteData is the authoritative payload that won.
	RemoteData Payload `json:"remoteData"`
}

// PushResult is the per-batch outcome of a push: three disjoint lists
// covering every operation in the request.
type PushResult struct {
	// Success holds the entity ids of applied operations.
	Success []string `json:"success"`

	// Failed holds operations rejected with an application error.
	Failed []OperationError `json:"failed"`

	// Conflicts holds operations rejected by conflict detection.
	Conflicts []OperationConflict `json:"conflicts"`
}

// PushResponse is the wire envelope of a push reply.
type PushResponse struct {
	Success PushResult `json:"success"`
}

// PullResponse carries the operations a device is missing plus the server
// time the device must adopt as its next checkpoint. ServerTime is returned
// even when Operations is empty so the checkpoint never starves.
type PullResponse struct {
	Operations []Operation `json:"operations"`
	ServerTime int64       `json:"serverTime"`
}

// Resolution is the user's choice for a surfaced conflict.
type Resolution string

const (
	// ResolutionLocal re-applies the client payload over the authoritative
	// record, bypassing the timestamp check.
	ResolutionLocal Resolution = "local"

	// ResolutionRemote keeps the authoritative record; nothing is written.
	ResolutionRemote Resolution = "remote"

	// ResolutionMerge applies a caller-supplied merged payload, deep-merged
	// over the authoritative record.
	ResolutionMerge Resolution = "merge"
)

// Valid reports whether r is a known resolution choice.
func (r Resolution) Valid() bool {
	switch r {
	case ResolutionLocal, ResolutionRemote, ResolutionMerge:
		return true
	}
	return false
}

// ResolveRequest asks the server to settle a previously surfaced conflict.
type ResolveRequest struct {
	Resolution Resolution `json:"resolution"`
	Entity     EntityKind `json:"entity"`
	EntityID   string     `json:"entityId"`

	// MergedData is required for local and merge resolutions; ignored for
	// remote.
	MergedData Payload `json:"mergedData,omitempty"`
}
