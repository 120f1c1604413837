package update

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/syncer"
)

func (m Model) Init() tea.Cmd {
	if m.Screen == ScreenDashboard {
		return tea.Batch(waitForSyncCmd(m.sess, m.gen), countdownTickCmd(m.gen))
	}
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if typed.String() == "ctrl+c" {
			m.Quitting = true
			return m, tea.Quit
		}
		if m.Screen == ScreenLogin {
			return m.handleLoginKey(typed)
		}
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		return m.handleDashboardKey(typed)
	case loginResultMsg:
		m.Login.Busy = false
		if typed.Err != nil {
			m.Login.Err = identity.Reason(typed.Err)
			return m, nil
		}
		m.enterDashboard(typed.Session)
		return m, tea.Batch(waitForSyncCmd(m.sess, m.gen), countdownTickCmd(m.gen))
	case loggedOutMsg:
		if typed.Err != nil {
			m.Status = StatusBar{Text: "some changes may not have been saved: " + typed.Err.Error(), IsError: true}
			m.Login.Notice = m.Status.Text
		}
		return m, nil
	case SyncStatusMsg:
		if typed.Gen != m.gen || m.sess == nil {
			return m, nil
		}
		wasSyncing := m.Syncing
		m.Syncing = typed.Status.State == syncer.StateSyncing
		m.Status = syncStatusText(typed.Status)
		m.clampCursor()
		cmds := []tea.Cmd{waitForSyncCmd(m.sess, m.gen)}
		if m.Syncing && !wasSyncing {
			cmds = append(cmds, m.syncSpinner.Tick)
		}
		return m, tea.Batch(cmds...)
	case syncClosedMsg:
		return m, nil
	case CountdownTickMsg:
		if typed.Gen != m.gen || m.Screen != ScreenDashboard {
			return m, nil
		}
		m.now = typed.At
		return m, countdownTickCmd(m.gen)
	case spinner.TickMsg:
		if m.Syncing || m.Login.Busy {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.helpModel.Width = typed.Width
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	}

	if m.Screen == ScreenLogin {
		var cmd tea.Cmd
		if m.Login.Focus == 0 {
			m.emailInput, cmd = m.emailInput.Update(msg)
		} else {
			m.passInput, cmd = m.passInput.Update(msg)
		}
		return m, cmd
	}
	if m.Palette.Active {
		// cursor blink
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}
	if m.Screen == ScreenLogin || m.sess == nil {
		return m.renderLogin()
	}
	return m.renderDashboard()
}
