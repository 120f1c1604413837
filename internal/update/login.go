package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studyd/internal/views"
)

func (m Model) handleLoginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.Login.Busy {
		return m, nil
	}
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.setLoginFocus(1 - m.Login.Focus)
		return m, nil
	case "ctrl+n":
		m.Login.Creating = !m.Login.Creating
		m.Login.Err = ""
		return m, nil
	case "enter":
		if m.Login.Focus == 0 {
			m.setLoginFocus(1)
			return m, nil
		}
		return m.submitLogin()
	}

	var cmd tea.Cmd
	if m.Login.Focus == 0 {
		m.emailInput, cmd = m.emailInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m *Model) setLoginFocus(i int) {
	m.Login.Focus = i
	if i == 0 {
		m.emailInput.Focus()
		m.passInput.Blur()
		return
	}
	m.emailInput.Blur()
	m.passInput.Focus()
}

func (m Model) submitLogin() (Model, tea.Cmd) {
	email := strings.TrimSpace(m.emailInput.Value())
	password := m.passInput.Value()
	if email == "" || password == "" {
		m.Login.Err = "Enter your email and password."
		return m, nil
	}
	m.Login.Busy = true
	m.Login.Err = ""
	m.Login.Notice = ""
	return m, tea.Batch(m.authenticateCmd(email, password, m.Login.Creating), m.syncSpinner.Tick)
}

func (m Model) renderLogin() string {
	return views.RenderLogin(views.LoginData{
		Creating:   m.Login.Creating,
		EmailView:  m.emailInput.View(),
		PassView:   m.passInput.View(),
		Focus:      m.Login.Focus,
		Busy:       m.Login.Busy,
		BusyView:   m.syncSpinner.View(),
		ErrorText:  m.Login.Err,
		RestoreMsg: m.Login.Notice,
	})
}
