package service

import (
	"context"
	"errors"
	"strings"

	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/models"
)

// clientAuthService is the concrete [ClientAuthService]. Credentials go to
// the server as-is over the adapter; the adapter keeps the returned bearer
// token for every later call, so this service carries no session state.
type clientAuthService struct {
	adapter adapter.ServerAdapter
	logger  *logger.Logger
}

// NewClientAuthService constructs a [ClientAuthService] over the server
// adapter.
func NewClientAuthService(serverAdapter adapter.ServerAdapter, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{adapter: serverAdapter, logger: logger}
}

// Register implements [ClientAuthService].
func (a *clientAuthService) Register(ctx context.Context, user models.User) (models.User, error) {
	if strings.TrimSpace(user.Login) == "" || user.Password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	registered, err := a.adapter.Register(ctx, user)
	if err != nil {
		return models.User{}, mapAdapterError(err)
	}

	a.logger.Info().Str("login", registered.Login).Msg("account registered")
	return registered, nil
}

// Login implements [ClientAuthService].
func (a *clientAuthService) Login(ctx context.Context, user models.User) (models.User, error) {
	if strings.TrimSpace(user.Login) == "" || user.Password == "" {
		return models.User{}, ErrInvalidDataProvided
	}

	authenticated, err := a.adapter.Login(ctx, user)
	if err != nil {
		// on the login route a 401 means bad credentials, not a stale token
		if errors.Is(err, adapter.ErrUnauthorized) {
			return models.User{}, ErrWrongPassword
		}
		return models.User{}, mapAdapterError(err)
	}

	a.logger.Info().Int64("user_id", authenticated.UserID).Msg("logged in")
	return authenticated, nil
}
