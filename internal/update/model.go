package update

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/log"

	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/logging"
	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/session"
)

type Screen string

const (
	ScreenLogin     Screen = "Login"
	ScreenDashboard Screen = "Dashboard"
)

type Tab int

const (
	TabTargets Tab = iota
	TabDaily
)

func (t Tab) String() string {
	if t == TabDaily {
		return "Daily"
	}
	return "Targets"
}

func (t Tab) Kind() model.ContainerKind {
	if t == TabDaily {
		return model.KindDaily
	}
	return model.KindTarget
}

type StatusBar struct {
	Text    string
	IsError bool
}

// Authenticator is the part of identity.Service the login screen needs.
type Authenticator interface {
	CreateAccount(ctx context.Context, email, password string) (identity.Session, error)
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
}

// SessionSaver remembers the signed-in session between runs.
type SessionSaver interface {
	Save(identity.Session) error
	Clear() error
}

// SessionOpener loads an account's documents and starts syncing them.
type SessionOpener func(ctx context.Context, acc identity.Account) (*session.Session, error)

type Deps struct {
	Auth     Authenticator
	Sessions SessionSaver
	Open     SessionOpener
	Logger   *log.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// CloseTimeout bounds the final flush on logout and quit.
	CloseTimeout time.Duration
}

type LoginState struct {
	Creating bool
	Focus    int
	Busy     bool
	Err      string
	Notice   string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	Screen      Screen
	Tab         Tab
	Cursor      int
	Login       LoginState
	Palette     CommandPaletteState
	Status      StatusBar
	Syncing     bool
	HelpVisible bool
	Quitting    bool
	LastError   error

	deps Deps
	log  *log.Logger
	sess *session.Session
	// gen changes on every sign-in and sign-out; ticks and sync events
	// carrying an older value belong to a closed session.
	gen uint64
	now time.Time

	emailInput   textinput.Model
	passInput    textinput.Model
	commandInput textinput.Model
	syncSpinner  spinner.Model
	helpModel    help.Model
	keys         keyMap
}

func NewModel(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.CloseTimeout <= 0 {
		deps.CloseTimeout = 10 * time.Second
	}
	m := Model{
		Screen: ScreenLogin,
		Tab:    TabTargets,
		deps:   deps,
		log:    logging.OrDiscard(deps.Logger).WithPrefix("ui"),
		keys:   defaultKeyMap(),
	}
	m.now = deps.Now()
	m.initBubbleComponents()
	return m
}

// WithSession starts on the dashboard of an already open session, as when a
// saved session is restored at startup.
func (m Model) WithSession(sess *session.Session) Model {
	m.enterDashboard(sess)
	return m
}

// Session returns the open session, or nil on the login screen.
func (m Model) Session() *session.Session {
	return m.sess
}

func (m *Model) initBubbleComponents() {
	m.emailInput = textinput.New()
	m.emailInput.Prompt = "email    "
	m.emailInput.Placeholder = "you@example.com"
	m.emailInput.CharLimit = 254
	m.emailInput.Width = 36
	m.emailInput.Focus()

	m.passInput = textinput.New()
	m.passInput.Prompt = "password "
	m.passInput.EchoMode = textinput.EchoPassword
	m.passInput.EchoCharacter = '*'
	m.passInput.CharLimit = 128
	m.passInput.Width = 36

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 64

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.helpModel = help.New()
}

func (m *Model) enterDashboard(sess *session.Session) {
	m.gen++
	m.sess = sess
	m.Screen = ScreenDashboard
	m.Tab = TabTargets
	m.Cursor = 0
	m.Login = LoginState{}
	m.Palette = CommandPaletteState{}
	m.Syncing = false
	m.now = m.deps.Now()
	m.passInput.SetValue("")
	m.emailInput.Blur()
	m.passInput.Blur()
	m.Status = StatusBar{Text: "signed in as " + sess.Account.Email}
}

func (m *Model) leaveDashboard() *session.Session {
	sess := m.sess
	m.gen++
	m.sess = nil
	m.Screen = ScreenLogin
	m.Cursor = 0
	m.Palette = CommandPaletteState{}
	m.HelpVisible = false
	m.Syncing = false
	m.Login = LoginState{}
	m.emailInput.Focus()
	m.passInput.Blur()
	m.passInput.SetValue("")
	return sess
}

// Close flushes and closes the open session, if any. The binary calls it on
// the final model after the program exits.
func (m Model) Close(ctx context.Context) error {
	if m.sess == nil {
		return nil
	}
	return m.sess.Close(ctx)
}
