// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

const (
	appendOperation = `
		INSERT INTO operations (
			id,
			user_id,
			device_id,
			op_type,
			entity_kind,
			entity_id,
			payload,
			ts,
			synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0);`

	selectPendingOperations = `
		SELECT
			id,
			user_id,
			device_id,
			op_type,
			entity_kind,
			entity_id,
			payload,
			ts
		FROM operations
		WHERE user_id = ? AND synced = 0
		ORDER BY ts ASC, id ASC;`

	countPendingOperations = `
		SELECT COUNT(*)
		FROM operations
		WHERE user_id = ? AND synced = 0;`

	selectPendingEntityKeys = `
		SELECT DISTINCT entity_kind, entity_id
		FROM operations
		WHERE user_id = ? AND synced = 0;`

	markOperationSynced = `
		UPDATE operations
		SET synced = 1, synced_at = ?
		WHERE id = ?;`

	purgeSyncedOperations = `
		DELETE FROM operations
		WHERE user_id = ? AND synced = 1 AND synced_at < ?;`

	clearPendingOperations = `
		DELETE FROM operations
		WHERE user_id = ? AND synced = 0;`

	getMetaValue = `
		SELECT value FROM meta WHERE key = ?;`

	setMetaValue = `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
)
