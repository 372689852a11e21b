// Package tui is the terminal front of the client: a login screen and the
// sync status screen. It owns no sync logic; every action is delegated to
// the client services and the screen just renders the reported state.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/models"
)

// ErrUserQuit reports that the user left the program from the login screen.
var ErrUserQuit = errors.New("user quit")

type TUI struct {
	services *service.ClientServices
	logger   *logger.Logger
}

func New(services *service.ClientServices, logger *logger.Logger) (*TUI, error) {
	return &TUI{services: services, logger: logger}, nil
}

// LoginFlow runs the credentials screen until the user authenticates or
// quits. On success the returned user carries the server-assigned id and the
// adapter holds the session token.
func (t *TUI) LoginFlow(ctx context.Context) (models.User, error) {
	model := newAuthModel(ctx, t.services.AuthService)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return models.User{}, err
	}

	result, ok := finalModel.(authModel)
	if !ok {
		return models.User{}, tea.ErrProgramKilled
	}
	if result.quit {
		return models.User{}, ErrUserQuit
	}
	return result.user, nil
}

// StatusLoop runs the sync status screen until the user quits. State updates
// are streamed in through the sync service's status subscription.
func (t *TUI) StatusLoop(ctx context.Context, userID int64) error {
	program := tea.NewProgram(newStatusModel(ctx, t.services, userID), tea.WithAltScreen())

	t.services.SyncService.OnStatusChange(func(state models.SyncState) {
		program.Send(syncStateMsg{state: state})
	})

	_, err := program.Run()
	return err
}
