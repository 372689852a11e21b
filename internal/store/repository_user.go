package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
type userRepository struct {
	*DB
	logger *logger.Logger
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("UserRepository created")
	return &userRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateUser inserts a new account and returns the persisted record with the
// server-assigned user id. A unique-violation on login maps to
// [ErrLoginAlreadyExists].
func (u *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	var created models.User
	err := u.DB.QueryRowContext(ctx, createUser, user.Login, user.Name, user.PasswordHash).Scan(
		&created.UserID,
		&created.Login,
		&created.Name,
		&created.PasswordHash,
		&created.CreatedAt,
	)
	if err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.User{}, ErrLoginAlreadyExists
		}
		log.Err(err).
			Str("func", "userRepository.CreateUser").
			Str("login", user.Login).
			Msg("failed to create user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return created, nil
}

// FindUserByLogin loads the account with the given login, or
// [ErrNoUserWasFound] if none exists.
func (u *userRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	log := logger.FromContext(ctx)

	var user models.User
	err := u.DB.QueryRowContext(ctx, findUserByLogin, login).Scan(
		&user.UserID,
		&user.Login,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNoUserWasFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "userRepository.FindUserByLogin").
			Str("login", login).
			Msg("failed to find user by login")
		return models.User{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return user, nil
}
