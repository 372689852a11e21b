package store

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
)

// ClientStorages groups all client-side repositories into a single value
// passed to the client service layer. They share one SQLite connection, so
// oplog appends and replica writes serialize cleanly.
type ClientStorages struct {
	// OperationLog is the append-only record of local mutations.
	OperationLog OperationLog

	// Replica is the local materialized view of all entities.
	Replica ReplicaRepository

	// Meta persists the device identity and sync checkpoint.
	Meta MetaRepository
}

// NewClientStorages initialises the client storage layer: it opens (or
// creates) the SQLite database at cfg.Path, bootstraps the schema, and wires
// up every repository.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new client storages...")

	db, err := NewConnectSQLite(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	return &ClientStorages{
		OperationLog: NewOperationLog(db, logger),
		Replica:      NewReplicaRepository(db, logger),
		Meta:         NewMetaRepository(db, logger),
	}, nil
}
