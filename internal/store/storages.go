package store

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
)

// Storages groups all server-side repositories into a single value passed to
// the service layer.
type Storages struct {
	UserRepository      UserRepository
	EntityRepository    EntityRepository
	OperationRepository OperationRepository
}

// NewStorages opens the PostgreSQL connection described by cfg, runs pending
// goose migrations, and wires up every repository.
func NewStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		UserRepository:      NewUserRepository(db, logger),
		EntityRepository:    NewEntityRepository(db, logger),
		OperationRepository: NewOperationRepository(db, logger),
	}, nil
}
