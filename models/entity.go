// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package models

// EntityKind identifies one of the fixed domain object types the sync engine
// replicates. The set is closed: operations naming any other kind are
// rejected at the transport boundary.
type EntityKind string

const (
	EntityProject    EntityKind = "project"
	EntityBordereau  EntityKind = "bordereau"  // price schedule
	EntityPeriode    EntityKind = "periode"    // billing period
	EntityMetre      EntityKind = "metre"      // measurement sheet
	EntityDecompt    EntityKind = "decompt"    // statement
	EntityPhoto      EntityKind = "photo"
	EntityPV         EntityKind = "pv"         // minutes document
	EntityAttachment EntityKind = "attachment"
	EntityCompany    EntityKind = "company"
)

// EntityKinds lists every replicated kind in a stable order. Used to build
// the per-kind replica tables and to iterate full-snapshot pulls.
var EntityKinds = []EntityKind{
	EntityProject,
	EntityBordereau,
	EntityPeriode,
	EntityMetre,
	EntityDecompt,
	EntityPhoto,
	EntityPV,
	EntityAttachment,
	EntityCompany,
}

// Valid reports whether k belongs to the closed entity-kind set.
func (k EntityKind) Valid() bool {
	for _, known := range EntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// EntityRecord is the generic materialized form of one entity, identical in
// shape for every kind. The payload stays opaque; the sync engine owns only
// the last-modified timestamp and the tombstone.
type EntityRecord struct {
	// UserID is the owning user. All queries are scoped by it.
	UserID int64 `json:"-"`

	// EntityID is the canonical (unprefixed) entity identifier.
	EntityID string `json:"entityId"`

	// Kind is the entity kind the record belongs to.
	Kind EntityKind `json:"entity"`

	// Data is the opaque entity payload, allow-listed per kind on write.
	Data Payload `json:"data"`

	// UpdatedAt is the last-modified time in epoch milliseconds. A remote
	// write older than this value loses the last-writer-wins comparison.
	UpdatedAt int64 `json:"updatedAt"`

	// DeletedAt, when non-nil, is the soft-delete tombstone time in epoch
	// milliseconds. Tombstoned records are excluded from snapshot pulls but
	// keep their id known so deletes cannot resurrect elsewhere.
	DeletedAt *int64 `json:"deletedAt,omitempty"`
}

// Deleted reports whether the record carries a tombstone.
func (r EntityRecord) Deleted() bool {
	return r.DeletedAt != nil
}
