package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aberthet/chantier-sync/internal/config"
	"github.com/aberthet/chantier-sync/internal/logger"
)

// NewConnectSQLite opens the device's local replica, creating the file and
// its directory on first run. ":memory:" is honoured for tests.
func NewConnectSQLite(ctx context.Context, cfg config.ClientStorage, log *logger.Logger) (*DB, error) {
	if cfg.Path != ":memory:" {
		if err := createLocalDBFileIfNotExists(cfg.Path); err != nil {
			log.Err(err).Str("func", "NewConnectSQLite").Str("path", cfg.Path).Msg("creating replica file failed")
			return nil, fmt.Errorf("creating replica file: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("opening replica failed")
		return nil, fmt.Errorf("opening replica: %w", err)
	}

	// the sqlite3 driver serializes access per connection; a single
	// connection avoids SQLITE_BUSY between the oplog and replica writers
	conn.SetMaxOpenConns(1)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("replica unreachable")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("replica opened")

	db := &DB{
		DB:     conn,
		logger: log,
	}

	if err := bootstrapClientSchema(ctx, db, log); err != nil {
		return nil, err
	}

	return db, nil
}

func createLocalDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating replica directory: %w", err)
			}
		}
		f, err := os.Create(dbFile)
		if err != nil {
			return fmt.Errorf("creating replica file: %w", err)
		}
		f.Close()
	}

	return nil
}
