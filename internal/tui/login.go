package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/models"
)

// authModel is the credentials screen. Enter submits, tab moves between the
// two fields, ctrl+r toggles between login and registration.
type authModel struct {
	ctx  context.Context
	auth service.ClientAuthService

	inputs     []textinput.Model
	focus      int
	registering bool
	submitting  bool
	errMsg      string

	user models.User
	done bool
	quit bool
}

func newAuthModel(ctx context.Context, auth service.ClientAuthService) authModel {
	inputs := make([]textinput.Model, 2)
	for i := range inputs {
		inputs[i] = textinput.New()
		inputs[i].Width = 32
	}
	inputs[0].Placeholder = "identifiant"
	inputs[1].Placeholder = "mot de passe"
	inputs[1].EchoMode = textinput.EchoPassword
	inputs[1].EchoCharacter = '*'
	inputs[0].Focus()

	return authModel{ctx: ctx, auth: auth, inputs: inputs}
}

func (m authModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.quit):
			m.quit = true
			return m, tea.Quit

		case key.Matches(msg, keys.register):
			m.registering = !m.registering
			return m, nil

		case key.Matches(msg, keys.tab):
			m.focus = (m.focus + 1) % len(m.inputs)
			for i := range m.inputs {
				if i == m.focus {
					m.inputs[i].Focus()
				} else {
					m.inputs[i].Blur()
				}
			}
			return m, nil

		case key.Matches(msg, keys.enter):
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.errMsg = ""
			return m, m.submit()
		}

	case authDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.user = msg.user
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m authModel) submit() tea.Cmd {
	user := models.User{
		Login:    m.inputs[0].Value(),
		Password: m.inputs[1].Value(),
	}
	registering := m.registering
	return func() tea.Msg {
		var (
			authenticated models.User
			err           error
		)
		if registering {
			authenticated, err = m.auth.Register(m.ctx, user)
		} else {
			authenticated, err = m.auth.Login(m.ctx, user)
		}
		return authDoneMsg{user: authenticated, err: err}
	}
}

func (m authModel) View() string {
	title := "Connexion"
	action := "enter se connecter"
	if m.registering {
		title = "Créer un compte"
		action = "enter créer"
	}

	out := titleStyle.Render("chantier-sync — "+title) + "\n\n"
	out += "Identifiant:  [" + m.inputs[0].View() + "]\n"
	out += "Mot de passe: [" + m.inputs[1].View() + "]\n\n"
	if m.submitting {
		out += "...\n"
	}
	if m.errMsg != "" {
		out += errorStyle.Render(m.errMsg) + "\n"
	}
	out += helpStyle.Render(action + "  tab champ suivant  ctrl+r " + toggleLabel(m.registering) + "  esc quitter")
	return appStyle.Render(out)
}

func toggleLabel(registering bool) string {
	if registering {
		return "connexion"
	}
	return "créer un compte"
}
