// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package store

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// clientSchema is the local replica schema, applied on every open. All
// statements are idempotent so an existing database passes through
// unchanged. Timestamps are epoch milliseconds to match the wire format.
const clientSchema = `
CREATE TABLE IF NOT EXISTS operations (
    id          TEXT PRIMARY KEY,
    user_id     INTEGER NOT NULL,
    device_id   TEXT    NOT NULL,
    op_type     TEXT    NOT NULL,
    entity_kind TEXT    NOT NULL,
    entity_id   TEXT    NOT NULL,
    payload     TEXT    NOT NULL DEFAULT '{}',
    ts          INTEGER NOT NULL,
    synced      INTEGER NOT NULL DEFAULT 0,
    synced_at   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_operations_pending ON operations (user_id, synced, ts);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// clientEntityDDL is instantiated once per replicated kind.
const clientEntityDDL = `
CREATE TABLE IF NOT EXISTS %s (
    user_id    INTEGER NOT NULL,
    entity_id  TEXT    NOT NULL,
    payload    TEXT    NOT NULL DEFAULT '{}',
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER,
    PRIMARY KEY (user_id, entity_id)
);
`

// bootstrapClientSchema creates the operation log, meta table, and one
// replica table per entity kind.
func bootstrapClientSchema(ctx context.Context, db *DB, log *logger.Logger) error {
	if _, err := db.ExecContext(ctx, clientSchema); err != nil {
		log.Err(err).Str("func", "bootstrapClientSchema").Msg("error creating client schema")
		return fmt.Errorf("create client schema: %w", err)
	}

	for _, kind := range models.EntityKinds {
		table, err := entityTable(kind)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf(clientEntityDDL, table)); err != nil {
			log.Err(err).Str("func", "bootstrapClientSchema").Str("table", table).Msg("error creating replica table")
			return fmt.Errorf("create replica table %s: %w", table, err)
		}
	}

	return nil
}
