package update

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studyd/internal/derive"
	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/store"
	"github.com/sandeepkv93/studyd/internal/views"
)

// Row is one selectable topic line: a topic id at one location.
type Row struct {
	ID  string
	Loc model.Location
}

type columnLayout struct {
	Loc model.Location
	IDs []string
}

type cardLayout struct {
	Kind     model.ContainerKind
	ID       string
	Title    string
	Subtitle string
	Urgency  derive.Urgency
	Percent  float64
	Columns  []columnLayout
}

// layout arranges the containers of one tab in display order.
func (m Model) layout(snap store.Snapshot, tab Tab) []cardLayout {
	kind := tab.Kind()
	containers := snap.Data.Placements.Of(kind)
	out := make([]cardLayout, 0, len(containers))

	if kind == model.KindTarget {
		seen := make(map[string]bool)
		for _, card := range derive.SortedTargetCards(snap) {
			seen[card.ID] = true
			tl := derive.TargetTimeline(card, m.now)
			out = append(out, cardLayout{
				Kind:     kind,
				ID:       card.ID,
				Title:    card.Title,
				Subtitle: fmt.Sprintf("%s to %s, %d of %d days left", card.StartDate, card.EndDate, tl.DaysRemaining, tl.TotalDays),
				Urgency:  tl.Urgency,
			})
		}
		for _, id := range sortedIDs(containers) {
			if !seen[id] {
				out = append(out, cardLayout{Kind: kind, ID: id, Title: id, Subtitle: "no target dates"})
			}
		}
	} else {
		for _, date := range derive.SortedDailyDates(snap) {
			c := cardLayout{Kind: kind, ID: date, Title: date}
			if day, err := model.ParseDailyKey(date); err == nil {
				c.Title = date + " " + day.Weekday().String()
			}
			if target, ok := derive.TargetForDate(snap, date); ok {
				c.Subtitle = "target: " + target.Title
			}
			out = append(out, c)
		}
	}

	for i := range out {
		c := &out[i]
		c.Percent = derive.ContainerProgress(snap, kind, c.ID).Percent()
		cols := containers[c.ID]
		for _, name := range columnOrder(snap.Settings.Columns(kind), cols) {
			c.Columns = append(c.Columns, columnLayout{
				Loc: model.Location{Kind: kind, Container: c.ID, Column: name},
				IDs: existing(snap, cols[name]),
			})
		}
	}
	return out
}

// columnOrder lists the configured columns first, then any others the
// container holds.
func columnOrder(configured []string, cols model.ColumnData) []string {
	out := slices.Clone(configured)
	extra := make([]string, 0)
	for name := range cols {
		if !slices.Contains(out, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func existing(snap store.Snapshot, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := snap.Data.Topics[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func sortedIDs(m map[string]model.ColumnData) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func rowsOf(cards []cardLayout) []Row {
	out := make([]Row, 0)
	for _, c := range cards {
		for _, col := range c.Columns {
			for _, id := range col.IDs {
				out = append(out, Row{ID: id, Loc: col.Loc})
			}
		}
	}
	return out
}

// Rows returns the selectable topic lines of the active tab.
func (m Model) Rows() []Row {
	if m.sess == nil {
		return nil
	}
	return rowsOf(m.layout(m.sess.Store.Snapshot(), m.Tab))
}

// Selected returns the row under the cursor.
func (m Model) Selected() (Row, bool) {
	rows := m.Rows()
	if len(rows) == 0 {
		return Row{}, false
	}
	return rows[clampIndex(m.Cursor, len(rows))], true
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *Model) clampCursor() {
	m.Cursor = clampIndex(m.Cursor, len(m.Rows()))
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Logout):
		sess := m.leaveDashboard()
		m.Status = StatusBar{Text: "signed out"}
		m.Login.Notice = "signed out"
		if m.deps.Sessions != nil {
			if err := m.deps.Sessions.Clear(); err != nil {
				m.log.Warn("clear session file", "err", err)
			}
		}
		return m, m.closeSessionCmd(sess)
	case key.Matches(msg, m.keys.Palette):
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		if m.Tab == TabTargets {
			m.Tab = TabDaily
		} else {
			m.Tab = TabTargets
		}
		m.Cursor = 0
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.Cursor++
		m.clampCursor()
		return m, nil
	}

	row, ok := m.Selected()
	if !ok {
		return m, nil
	}
	st := m.sess.Store
	switch {
	case key.Matches(msg, m.keys.Advance):
		st.AdvanceProgress(row.ID)
	case key.Matches(msg, m.keys.Rewind):
		st.RewindProgress(row.ID)
	case key.Matches(msg, m.keys.Delete):
		name := row.ID
		if t, ok := st.Topic(row.ID); ok {
			name = t.Name
		}
		if st.DeleteTopic(row.ID) {
			m.Status = StatusBar{Text: "deleted " + name}
		}
		m.clampCursor()
	}
	return m, nil
}

func (m Model) renderDashboard() string {
	snap := m.sess.Store.Snapshot()
	cards := m.layout(snap, m.Tab)
	rows := rowsOf(cards)
	cursor := clampIndex(m.Cursor, len(rows))

	var selected Row
	if len(rows) > 0 {
		selected = rows[cursor]
	}
	inTarget := placedIDs(snap.Data.Placements.Target)
	inDaily := placedIDs(snap.Data.Placements.Daily)

	blocks := make([]string, 0, len(cards)+1)
	overall := derive.OverallProgress(snap)
	blocks = append(blocks, fmt.Sprintf("overall %s %d/%d done",
		views.RenderProgressBar(overall.Percent()/100, 24), overall.Completed, overall.Total))
	for _, c := range cards {
		data := views.CardData{
			Title:    c.Title,
			Subtitle: c.Subtitle,
			Percent:  c.Percent,
			Urgency:  string(c.Urgency),
		}
		for _, col := range c.Columns {
			p := derive.ColumnProgress(snap, col.Loc)
			cd := views.ColumnData{Name: col.Loc.Column, Done: p.Completed, Total: p.Total}
			for _, id := range col.IDs {
				t := snap.Data.Topics[id]
				linked := inDaily[id]
				if c.Kind == model.KindDaily {
					linked = inTarget[id]
				}
				cd.Topics = append(cd.Topics, views.TopicLineData{
					ID:       id,
					Name:     t.Name,
					Progress: t.Progress,
					Priority: string(t.Priority),
					Hardness: t.Hardness.Short(),
					Status:   snap.Settings.StudyTypeName(t.StudyStatus),
					Selected: id == selected.ID && col.Loc == selected.Loc,
					Linked:   linked,
				})
			}
			data.Columns = append(data.Columns, cd)
		}
		blocks = append(blocks, views.RenderCard(data))
	}
	if len(cards) == 0 {
		blocks = append(blocks, emptyTabHint(m.Tab))
	}
	if orphans := m.sess.Store.Orphans(); len(orphans) > 0 {
		blocks = append(blocks, fmt.Sprintf("%d topic(s) without a card", len(orphans)))
	}
	left := strings.Join(blocks, "\n\n")

	right := m.renderDetail(snap, selected)
	if m.HelpVisible {
		right += "\n\n" + views.RenderHelp(append([]string{m.helpModel.FullHelpView(m.keys.FullHelp()), ""}, paletteUsage...))
	}

	statusText := m.Status.Text
	if m.Syncing {
		statusText = m.syncSpinner.View() + " " + statusText
	}

	return views.RenderApp(views.AppData{
		Header:     fmt.Sprintf("studyd | %s", m.sess.Account.DisplayName),
		Countdown:  m.renderCountdown(snap.Settings),
		Tabs:       views.RenderTabs([]string{TabTargets.String(), TabDaily.String()}, int(m.Tab)),
		LeftPane:   left,
		RightPane:  right,
		Palette:    views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()),
		StatusLine: statusText,
		StatusErr:  m.Status.IsError,
		Footer:     m.helpModel.ShortHelpView(m.keys.ShortHelp()),
	})
}

func (m Model) renderDetail(snap store.Snapshot, row Row) string {
	t, ok := snap.Data.Topics[row.ID]
	if row.ID == "" || !ok {
		return views.RenderDetail(views.DetailData{})
	}
	locs := m.sess.Store.Locate(row.ID)
	names := make([]string, 0, len(locs))
	for _, loc := range locs {
		names = append(names, loc.String())
	}
	return views.RenderDetail(views.DetailData{
		ID:            row.ID,
		Name:          t.Name,
		Progress:      t.Progress,
		Priority:      string(t.Priority),
		Hardness:      string(t.Hardness),
		StudyStatus:   snap.Settings.StudyTypeName(t.StudyStatus),
		EstimatedTime: t.EstimatedTime,
		TimedNote:     t.TimedNote,
		Locations:     names,
		NoteView:      views.RenderMarkdown(t.Note),
	})
}

func (m Model) renderCountdown(s model.Settings) string {
	cd := derive.CountdownAt(s.Countdown, m.now, nil)
	if cd.Expired {
		return cd.Title + ": reached"
	}
	return cd.Title + ": " + cd.Clock()
}

func placedIDs(containers map[string]model.ColumnData) map[string]bool {
	out := make(map[string]bool)
	for _, cols := range containers {
		for _, ids := range cols {
			for _, id := range ids {
				out[id] = true
			}
		}
	}
	return out
}

func emptyTabHint(tab Tab) string {
	if tab == TabDaily {
		return "no daily plans yet: /card add daily today"
	}
	return `no targets yet: /target add "Block 1" 2026-01-01 2026-01-31`
}
