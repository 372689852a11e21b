// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package utils

import (
	"strings"

	"github.com/aberthet/chantier-sync/models"
)

// Entity identifiers historically circulated in two shapes: the bare
// client-generated id ("018f3a…") and a kind-prefixed form ("project_018f3a…"
// or "project:018f3a…") produced by older clients. Comparing the two shapes
// directly loses updates, so every store boundary funnels ids through
// CanonicalEntityID and never compares unnormalized values.

// CanonicalEntityID returns the canonical (bare) form of id for the given
// entity kind: any "<kind>_" or "<kind>:" prefix is stripped, surrounding
// whitespace removed. Ids already canonical pass through unchanged.
func CanonicalEntityID(kind models.EntityKind, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || kind == "" {
		return id
	}

	for _, sep := range []string{"_", ":"} {
		prefix := string(kind) + sep
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return id[len(prefix):]
		}
	}
	return id
}

// NormalizePayloadRefs canonicalizes every known reference field inside data
// (projectId, bordereauId, …) in place and returns data for chaining. Non-string
// values are left untouched; their validation belongs to the entity's owner.
func NormalizePayloadRefs(data models.Payload) models.Payload {
	if data == nil {
		return nil
	}

	for key, kind := range models.ReferenceFields() {
		raw, ok := data[key]
		if !ok {
			continue
		}
		if s, ok := raw.(string); ok {
			data[key] = CanonicalEntityID(kind, s)
		}
	}
	return data
}
