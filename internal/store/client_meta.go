package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/utils"
	"github.com/aberthet/chantier-sync/models"
)

// metaRepository is the SQLite-backed implementation of [MetaRepository],
// a small key/value table for device identity and sync checkpoints.
type metaRepository struct {
	*DB
	uuid   *utils.UUIDGenerator
	logger *logger.Logger
}

// NewMetaRepository constructs a [MetaRepository] backed by the local
// database.
func NewMetaRepository(db *DB, logger *logger.Logger) MetaRepository {
	return &metaRepository{DB: db, uuid: utils.NewUUIDGenerator(), logger: logger}
}

// DeviceID implements [MetaRepository]. The key is scoped per client kind so
// a desktop client and a browser client on the same machine hold distinct
// identities.
func (m *metaRepository) DeviceID(ctx context.Context, kind models.ClientKind) (string, error) {
	key := "device_id:" + string(kind)

	value, err := m.get(ctx, key)
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// first run: generate and persist
	deviceID := m.uuid.Generate()
	if err := m.set(ctx, key, deviceID); err != nil {
		return "", err
	}

	m.logger.Info().
		Str("device_id", deviceID).
		Str("client_kind", string(kind)).
		Msg("generated new device identity")
	return deviceID, nil
}

// Checkpoint implements [MetaRepository].
func (m *metaRepository) Checkpoint(ctx context.Context, userID int64) (int64, error) {
	value, err := m.get(ctx, checkpointKey(userID))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	checkpoint, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed checkpoint value %q: %w", value, err)
	}
	return checkpoint, nil
}

// SetCheckpoint implements [MetaRepository].
func (m *metaRepository) SetCheckpoint(ctx context.Context, userID int64, value int64) error {
	return m.set(ctx, checkpointKey(userID), strconv.FormatInt(value, 10))
}

// ResetCheckpoint implements [MetaRepository].
func (m *metaRepository) ResetCheckpoint(ctx context.Context, userID int64) error {
	return m.set(ctx, checkpointKey(userID), "0")
}

func checkpointKey(userID int64) string {
	return "checkpoint:" + strconv.FormatInt(userID, 10)
}

func (m *metaRepository) get(ctx context.Context, key string) (string, error) {
	var value string
	err := m.DB.QueryRowContext(ctx, getMetaValue, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return value, nil
}

func (m *metaRepository) set(ctx context.Context, key, value string) error {
	if _, err := m.DB.ExecContext(ctx, setMetaValue, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
