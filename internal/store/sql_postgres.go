package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewConnectPostgres opens the server-side pool. The pool is sized for a
// handful of concurrent push/pull handlers, not for per-device connections;
// devices multiplex over HTTP.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("opening database pool failed")
		return nil, fmt.Errorf("opening database pool: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	// fail at startup rather than on the first push
	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("database unreachable")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database")

	return &DB{
		DB:                 conn,
		logger:             log,
		errorClassificator: NewPostgresErrorClassifier(),
	}, nil
}

// postgresError extracts the SQLSTATE code, or "" when err did not come from
// the driver.
func postgresError(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}
