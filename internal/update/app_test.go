package update

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/studyd/internal/identity"
	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/session"
	"github.com/sandeepkv93/studyd/internal/storage"
	"github.com/sandeepkv93/studyd/internal/syncer"
)

type fakeSessions struct {
	saved   []identity.Session
	cleared int
}

func (f *fakeSessions) Save(s identity.Session) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSessions) Clear() error {
	f.cleared++
	return nil
}

var fixedNow = time.Date(2026, 2, 10, 9, 0, 0, 0, time.Local)

func newTestModel(t *testing.T) (Model, *fakeSessions) {
	t.Helper()
	backend := storage.NewMemoryStore()
	tokens := identity.NewTokenManager("update-test-secret-update-test-secret", "studyd-test", time.Hour)
	svc := identity.NewService(backend, tokens, identity.Options{BcryptCost: bcrypt.MinCost})
	sessions := &fakeSessions{}
	m := NewModel(Deps{
		Auth:     svc,
		Sessions: sessions,
		Open: func(ctx context.Context, acc identity.Account) (*session.Session, error) {
			return session.Open(ctx, acc, backend, syncer.Options{Debounce: 10 * time.Millisecond, StatusBuffer: 16})
		},
		Now: func() time.Time { return fixedNow },
	})
	return m, sessions
}

func signedIn(t *testing.T) (Model, *fakeSessions) {
	t.Helper()
	m, sessions := newTestModel(t)
	msg := m.authenticateCmd("ada@example.com", "secret1", true)()
	updated, cmd := m.Update(msg)
	next := updated.(Model)
	if next.Screen != ScreenDashboard || next.Session() == nil {
		t.Fatalf("expected dashboard after account creation, got %q (%s)", next.Screen, next.Login.Err)
	}
	if cmd == nil {
		t.Fatalf("expected sync watch and countdown commands")
	}
	t.Cleanup(func() { _ = next.Close(context.Background()) })
	return next, sessions
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		updated, _ := m.Update(k)
		m = updated.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace     = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyTab       = tea.KeyMsg{Type: tea.KeyTab}
)

func runCommand(t *testing.T, m Model, line string) Model {
	t.Helper()
	m = press(t, m, runes("/"))
	if !m.Palette.Active {
		t.Fatalf("expected palette to open")
	}
	return press(t, m, runes(line), keyEnter)
}

func TestNewModelStartsOnLogin(t *testing.T) {
	m, _ := newTestModel(t)
	if m.Screen != ScreenLogin {
		t.Fatalf("expected login screen, got %q", m.Screen)
	}
	if m.Session() != nil {
		t.Fatalf("expected no session before sign-in")
	}
	if !strings.Contains(m.View(), "sign in") {
		t.Fatalf("login view missing title:\n%s", m.View())
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, runes("ada@example.com"), keyEnter)
	if m.Login.Focus != 1 {
		t.Fatalf("enter on email should move to password, focus=%d", m.Login.Focus)
	}
	m = press(t, m, keyEnter)
	if m.Login.Err == "" || m.Login.Busy {
		t.Fatalf("expected inline error without submitting, got %+v", m.Login)
	}
}

func TestLoginFailureShowsReason(t *testing.T) {
	m, _ := newTestModel(t)
	updated, _ := m.Update(m.authenticateCmd("nobody@example.com", "secret1", false)())
	next := updated.(Model)
	if next.Screen != ScreenLogin {
		t.Fatalf("expected to stay on login")
	}
	if want := identity.Reason(identity.ErrAccountNotFound); next.Login.Err != want {
		t.Fatalf("login error = %q, want %q", next.Login.Err, want)
	}
}

func TestCreateAccountSavesSession(t *testing.T) {
	m, sessions := signedIn(t)
	if len(sessions.saved) != 1 || sessions.saved[0].Account.Key != identity.NormalizeKey("ada@example.com") {
		t.Fatalf("unexpected saved sessions: %+v", sessions.saved)
	}
	if !strings.Contains(m.View(), "Targets") {
		t.Fatalf("dashboard view missing tabs")
	}
}

func TestPaletteAndKeysDriveTopicProgress(t *testing.T) {
	m, _ := signedIn(t)
	m = runCommand(t, m, `target add "Block 1" 2026-02-01 2026-02-28`)
	if m.Status.IsError {
		t.Fatalf("target add failed: %s", m.Status.Text)
	}
	m = runCommand(t, m, `add target "block 1" phy Optics`)
	if m.Status.IsError {
		t.Fatalf("add failed: %s", m.Status.Text)
	}

	rows := m.Rows()
	if len(rows) != 1 || rows[0].Loc.Column != "Phy" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	st := m.Session().Store
	id := rows[0].ID

	m = press(t, m, keySpace)
	if topic, _ := st.Topic(id); topic.Progress != 20 {
		t.Fatalf("progress after space = %d, want 20", topic.Progress)
	}
	m = press(t, m, keyBackspace, keyBackspace)
	if topic, _ := st.Topic(id); topic.Progress != 100 {
		t.Fatalf("progress after two rewinds = %d, want 100", topic.Progress)
	}

	m = runCommand(t, m, `note selected **read** chapter 4`)
	if topic, _ := st.Topic(id); topic.Note != "**read** chapter 4" {
		t.Fatalf("note = %q", topic.Note)
	}
	_ = m.View()

	m = press(t, m, runes("x"))
	if _, ok := st.Topic(id); ok {
		t.Fatalf("expected topic deleted")
	}
	if len(m.Rows()) != 0 {
		t.Fatalf("expected no rows after delete")
	}
}

func TestLinkAndPullBetweenTabs(t *testing.T) {
	m, _ := signedIn(t)
	m = runCommand(t, m, `target add "Block 1" 2026-02-01 2026-02-28`)
	m = runCommand(t, m, `card add daily today`)
	m = runCommand(t, m, `add daily today Exam "Past paper" --link=Chem`)
	if m.Status.IsError {
		t.Fatalf("linked add failed: %s", m.Status.Text)
	}
	m = runCommand(t, m, `add target "Block 1" Phy Optics`)

	rows := m.Rows()
	if len(rows) != 2 || rows[0].Loc.Column != "Phy" || rows[1].Loc.Column != "Chem" {
		t.Fatalf("unexpected target rows: %+v", rows)
	}
	st := m.Session().Store
	if locs := st.Locate(rows[1].ID); len(locs) != 2 {
		t.Fatalf("linked topic should be filed twice, got %v", locs)
	}

	m = runCommand(t, m, `pull selected today "morning session"`)
	if m.Status.IsError {
		t.Fatalf("pull failed: %s", m.Status.Text)
	}
	m = runCommand(t, m, `pull selected today Exam`)
	if !m.Status.IsError {
		t.Fatalf("second pull onto the same day should fail")
	}

	m = press(t, m, keyTab)
	if m.Tab != TabDaily {
		t.Fatalf("expected daily tab")
	}
	today := model.DailyKey(fixedNow)
	rows = m.Rows()
	if len(rows) != 2 || rows[0].Loc.Container != today {
		t.Fatalf("unexpected daily rows: %+v", rows)
	}

	m = runCommand(t, m, `card add daily tomorrow`)
	m = runCommand(t, m, `rename today tomorrow`)
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "already has a plan") {
		t.Fatalf("rename onto a taken date should fail, got %+v", m.Status)
	}
}

func TestCountdownCommandAndHeader(t *testing.T) {
	m, _ := signedIn(t)
	if got := m.renderCountdown(m.Session().Store.Settings()); !strings.HasSuffix(got, "reached") {
		t.Fatalf("default countdown should have passed, got %q", got)
	}
	m = runCommand(t, m, `countdown "Finals" 2026-03-01 09:00`)
	got := m.renderCountdown(m.Session().Store.Settings())
	if !strings.HasPrefix(got, "Finals: ") || strings.HasSuffix(got, "reached") {
		t.Fatalf("unexpected countdown %q", got)
	}
}

func TestLogoutStopsTicksAndClearsSession(t *testing.T) {
	m, sessions := signedIn(t)
	sess := m.Session()
	m = runCommand(t, m, `target add "Block 1" 2026-02-01 2026-02-28`)
	gen := m.gen

	updated, cmd := m.Update(runes("L"))
	m = updated.(Model)
	if m.Screen != ScreenLogin || m.Session() != nil {
		t.Fatalf("expected login screen after logout")
	}
	if sessions.cleared != 1 {
		t.Fatalf("expected session file cleared")
	}
	if cmd == nil {
		t.Fatalf("expected close command")
	}
	updated, _ = m.Update(cmd())
	m = updated.(Model)
	if m.Status.IsError {
		t.Fatalf("close reported error: %s", m.Status.Text)
	}

	select {
	case <-sess.Engine.Done():
	default:
		t.Fatalf("engine should be stopped after logout")
	}
	if len(sess.Store.Snapshot().Data.Cards) != 0 {
		t.Fatalf("store should be cleared after logout")
	}

	if _, cmd := m.Update(CountdownTickMsg{Gen: gen, At: fixedNow}); cmd != nil {
		t.Fatalf("countdown tick from closed session must not re-arm")
	}
	if _, cmd := m.Update(SyncStatusMsg{Gen: gen, Status: syncer.Status{State: syncer.StateFailed}}); cmd != nil {
		t.Fatalf("sync event from closed session must be ignored")
	}
}

func TestSyncStatusUpdatesStatusLine(t *testing.T) {
	m, _ := signedIn(t)
	updated, cmd := m.Update(SyncStatusMsg{Gen: m.gen, Status: syncer.Status{State: syncer.StateSyncing}})
	m = updated.(Model)
	if !m.Syncing || cmd == nil {
		t.Fatalf("expected syncing state with re-armed watch")
	}
	updated, _ = m.Update(SyncStatusMsg{Gen: m.gen, Status: syncer.Status{State: syncer.StateFailed, Err: context.DeadlineExceeded}})
	m = updated.(Model)
	if m.Syncing || !m.Status.IsError {
		t.Fatalf("expected failed status, got %+v", m.Status)
	}

	updated, cmd = m.Update(CountdownTickMsg{Gen: m.gen, At: fixedNow.Add(time.Second)})
	m = updated.(Model)
	if cmd == nil || !m.now.Equal(fixedNow.Add(time.Second)) {
		t.Fatalf("live countdown tick should advance the clock and re-arm")
	}
}

func TestStudyTypeAndSubjectCommands(t *testing.T) {
	m, _ := signedIn(t)
	st := m.Session().Store

	m = runCommand(t, m, `type add lab "Lab Work"`)
	if m.Status.IsError {
		t.Fatalf("type add failed: %s", m.Status.Text)
	}
	m = runCommand(t, m, `type rename lab Practical`)
	if got := st.Settings().StudyTypeName("lab"); got != "Practical" {
		t.Fatalf("renamed study type = %q", got)
	}
	m = runCommand(t, m, `type add lab Again`)
	if !m.Status.IsError {
		t.Fatalf("duplicate key should be rejected")
	}
	m = runCommand(t, m, `type delete mqb`)
	if got := st.Settings().StudyTypeName("mqb"); got != "mqb" {
		t.Fatalf("deleted study type still resolves to %q", got)
	}
	m = runCommand(t, m, `type delete mqb`)
	if !m.Status.IsError {
		t.Fatalf("deleting an unknown key should fail")
	}

	m = runCommand(t, m, `subjects Math, Organic Chem`)
	if cols := st.Settings().Columns(model.KindTarget); len(cols) != 2 || cols[1] != "Organic Chem" {
		t.Fatalf("unexpected target columns: %v", cols)
	}
	m = runCommand(t, m, `subjects default`)
	if cols := st.Settings().Columns(model.KindTarget); len(cols) != len(model.DefaultTargetColumns) {
		t.Fatalf("expected default columns, got %v", cols)
	}
	if m.Status.IsError {
		t.Fatalf("subjects default failed: %s", m.Status.Text)
	}
}

func TestPaletteEditingKeysReturnInputCommand(t *testing.T) {
	m, _ := signedIn(t)
	m = press(t, m, runes("/"), runes("ab"))
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(Model)
	if cmd == nil {
		t.Fatalf("moving the palette cursor should return the input's blink command")
	}
	if !m.Palette.Active || m.Palette.Input != "ab" {
		t.Fatalf("unexpected palette state %+v", m.Palette)
	}
}
