package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/session"
	"github.com/sandeepkv93/studyd/internal/syncer"
)

const authTimeout = 30 * time.Second

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// SyncStatusMsg relays one engine status event.
type SyncStatusMsg struct {
	Gen    uint64
	Status syncer.Status
}

// syncClosedMsg ends the watch loop of a session that has stopped.
type syncClosedMsg struct {
	Gen uint64
}

type CountdownTickMsg struct {
	Gen uint64
	At  time.Time
}

type loginResultMsg struct {
	Identity identity.Session
	Session  *session.Session
	Err      error
}

type loggedOutMsg struct {
	Err error
}

func waitForSyncCmd(sess *session.Session, gen uint64) tea.Cmd {
	if sess == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case st := <-sess.Engine.C():
			return SyncStatusMsg{Gen: gen, Status: st}
		case <-sess.Engine.Done():
			return syncClosedMsg{Gen: gen}
		}
	}
}

func countdownTickCmd(gen uint64) tea.Cmd {
	return tea.Tick(time.Second, func(at time.Time) tea.Msg {
		return CountdownTickMsg{Gen: gen, At: at}
	})
}

// authenticateCmd signs in (or creates the account) and opens its session.
func (m Model) authenticateCmd(email, password string, creating bool) tea.Cmd {
	deps := m.deps
	logger := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		var (
			ident identity.Session
			err   error
		)
		if creating {
			ident, err = deps.Auth.CreateAccount(ctx, email, password)
		} else {
			ident, err = deps.Auth.SignIn(ctx, email, password)
		}
		if err != nil {
			return loginResultMsg{Err: err}
		}

		sess, err := deps.Open(ctx, ident.Account)
		if err != nil {
			logger.Error("open session", "account", ident.Account.Key, "err", err)
			return loginResultMsg{Err: identity.ErrUnavailable}
		}
		if deps.Sessions != nil {
			if err := deps.Sessions.Save(ident); err != nil {
				logger.Warn("save session file", "err", err)
			}
		}
		return loginResultMsg{Identity: ident, Session: sess}
	}
}

// closeSessionCmd flushes pending writes and tears the session down.
func (m Model) closeSessionCmd(sess *session.Session) tea.Cmd {
	if sess == nil {
		return nil
	}
	timeout := m.deps.CloseTimeout
	logger := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := sess.Close(ctx)
		if err != nil {
			logger.Warn("close session", "account", sess.Account.Key, "err", err)
		}
		return loggedOutMsg{Err: err}
	}
}

func syncStatusText(st syncer.Status) StatusBar {
	switch st.State {
	case syncer.StatePending:
		return StatusBar{Text: "unsaved changes"}
	case syncer.StateSyncing:
		return StatusBar{Text: "saving..."}
	case syncer.StateSynced:
		return StatusBar{Text: "all changes saved " + st.At.Format("15:04:05")}
	case syncer.StateReceived:
		return StatusBar{Text: "updated from another device"}
	case syncer.StateFailed:
		return StatusBar{Text: "sync failed, will retry on next change: " + errText(st.Err), IsError: true}
	case syncer.StateSubscribeFailed:
		return StatusBar{Text: "live updates unavailable: " + errText(st.Err), IsError: true}
	default:
		return StatusBar{Text: st.State.String()}
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
