package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/models"
)

// statusModel is the sync status screen: one status line, the pending
// counter, the last error, and the recovery key bindings.
type statusModel struct {
	ctx      context.Context
	services *service.ClientServices
	userID   int64

	spinner spinner.Model
	state   models.SyncState
	notice  string
}

func newStatusModel(ctx context.Context, services *service.ClientServices, userID int64) statusModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return statusModel{
		ctx:      ctx,
		services: services,
		userID:   userID,
		spinner:  s,
		state:    services.SyncService.State(),
	}
}

func (m statusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			return m, tea.Quit

		case key.Matches(msg, keys.sync):
			m.notice = ""
			m.services.SyncJob.SyncNow()
			return m, nil

		case key.Matches(msg, keys.clear):
			m.notice = ""
			return m, m.clearPending()

		case key.Matches(msg, keys.resync):
			m.notice = ""
			return m, m.fullResync()
		}

	case syncStateMsg:
		m.state = msg.state
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.notice = errorStyle.Render(msg.err.Error())
		} else {
			m.notice = msg.info
		}
		m.state = m.services.SyncService.State()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m statusModel) clearPending() tea.Cmd {
	return func() tea.Msg {
		dropped, err := m.services.SyncService.ClearPending(m.ctx, m.userID)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{info: fmt.Sprintf("%d opérations locales abandonnées", dropped)}
	}
}

func (m statusModel) fullResync() tea.Cmd {
	return func() tea.Msg {
		if err := m.services.SyncService.ForceFullResync(m.ctx, m.userID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{info: "resynchronisation complète terminée"}
	}
}

func (m statusModel) View() string {
	out := titleStyle.Render("chantier-sync") + "\n\n"
	out += "État:       " + m.statusLine() + "\n"
	out += fmt.Sprintf("En attente: %d opérations\n", m.state.PendingCount)
	if m.state.LastSyncAt != nil {
		out += "Dernière synchro: " + m.state.LastSyncAt.Format("15:04:05") + "\n"
	}
	if m.state.LastError != "" {
		out += "\n" + errorStyle.Render("Erreur: "+m.state.LastError) + "\n"
	}
	if m.notice != "" {
		out += "\n" + m.notice + "\n"
	}
	out += "\n" + helpStyle.Render("s synchroniser  c vider la file  r resynchro complète  q quitter")
	return appStyle.Render(out)
}

func (m statusModel) statusLine() string {
	switch m.state.Status {
	case models.StatusSyncing:
		return m.spinner.View() + " envoi des modifications..."
	case models.StatusPulling:
		return m.spinner.View() + " réception des modifications..."
	case models.StatusSynced:
		return okStyle.Render("synchronisé")
	case models.StatusRealtime:
		return okStyle.Render("synchronisé (temps réel)")
	case models.StatusError:
		return errorStyle.Render("erreur de synchronisation")
	case models.StatusOffline:
		return warnStyle.Render("hors ligne")
	default:
		return string(m.state.Status)
	}
}
