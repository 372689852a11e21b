// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// OperationType classifies a mutation recorded in the operation log.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

// applyOrder is the fixed application precedence used when a batch of
// remote operations is sorted before being applied: a CREATE must be
// materialized before an UPDATE or DELETE targeting the same entity id
// can mean anything, regardless of arrival order.
var applyOrder = map[OperationType]int{
	OperationCreate: 0,
	OperationUpdate: 1,
	OperationDelete: 2,
}

// ApplyRank returns the sort precedence of t (CREATE < UPDATE < DELETE).
// Unknown types sort last.
func (t OperationType) ApplyRank() int {
	if rank, ok := applyOrder[t]; ok {
		return rank
	}
	return len(applyOrder)
}

// Valid reports whether t is one of the three known operation types.
func (t OperationType) Valid() bool {
	_, ok := applyOrder[t]
	return ok
}

// Payload is the opaque per-entity data carried by an operation.
// The sync engine never interprets individual keys; entity semantics are
// owned by the collaborator module that produced the payload.
type Payload map[string]any

// Value implements driver.Valuer so a Payload can be stored in a JSON/JSONB
// column (Postgres) or a TEXT column (SQLite) without per-call marshaling at
// the repository layer.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner, the inverse of [Payload.Value].
func (p *Payload) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported payload source type %T", src)
	}

	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Clone returns a shallow copy of p. Nested maps are shared; callers that
// mutate nested structures must deep-copy themselves.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Operation is the unit of change exchanged between a device and the server.
//
// An operation is created by a local mutation, held in the device's operation
// log with Synced=false, pushed to the server in an ordered batch, and marked
// Synced=true only after the server acknowledges it. Synced operations are
// retained for a bounded window and then purged.
type Operation struct {
	// ID uniquely identifies the operation itself (not the entity it touches).
	ID string `json:"id"`

	// DeviceID identifies the device that produced the operation. The server
	// uses it to exclude the origin from rebroadcasts and incremental pulls.
	DeviceID string `json:"deviceId,omitempty"`

	// UserID is the owner of the data being mutated. Never trusted from the
	// wire; the server overwrites it from the authenticated session.
	UserID int64 `json:"-"`

	// Type is the mutation kind: CREATE, UPDATE or DELETE.
	Type OperationType `json:"type"`

	// Entity is the kind of domain object being mutated (project, metre, ...).
	Entity EntityKind `json:"entity"`

	// EntityID is the client-generated identifier of the target entity,
	// globally unique within its kind across all of the user's devices.
	EntityID string `json:"entityId"`

	// Data is the opaque entity payload. Empty for DELETE operations.
	Data Payload `json:"data,omitempty"`

	// Timestamp is the client wall-clock time of the mutation in epoch
	// milliseconds. It drives last-writer-wins conflict resolution.
	Timestamp int64 `json:"timestamp"`

	// ServerTime is the server-assigned application time in epoch
	// milliseconds. Zero until the server has accepted the operation.
	ServerTime int64 `json:"serverTime,omitempty"`

	// Synced and SyncedAt track the local acknowledgment state. They never
	// travel on the wire.
	Synced   bool       `json:"-"`
	SyncedAt *time.Time `json:"-"`
}

// SortOperationsForApply orders ops in place by application precedence
// (CREATE < UPDATE < DELETE), ties broken by ascending client timestamp,
// then by id for determinism.
func SortOperationsForApply(ops []Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		if ra, rb := a.Type.ApplyRank(), b.Type.ApplyRank(); ra != rb {
			return ra < rb
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.ID < b.ID
	})
}
