package update

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/studyd/internal/commands"
	"github.com/sandeepkv93/studyd/internal/derive"
	"github.com/sandeepkv93/studyd/internal/model"
	"github.com/sandeepkv93/studyd/internal/store"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		m = m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.commandInput.CursorEnd()
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		m.Palette.Input = m.commandInput.Value()
		return m, cmd
	}
	return m, nil
}

func (m Model) executePaletteCommand() Model {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	if m.sess == nil {
		return m
	}
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}

	res, err := commands.Execute(cmd, m.handlers())
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.LastError = err
		m.log.Debug("command failed", "cmd", cmd.Type, "err", err)
	} else {
		m.Status = StatusBar{Text: res.Message}
	}
	m.clampCursor()
	return m
}

func (m Model) handlers() commands.Handlers {
	st := m.sess.Store
	return commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			snap := st.Snapshot()
			container, err := m.resolveContainer(snap, a.Kind, a.Container)
			if err != nil {
				return commands.Result{}, err
			}
			column := resolveColumn(snap.Settings, a.Kind, a.Column)

			var target model.TargetCard
			if a.Link {
				card, ok := derive.TargetForDate(snap, container)
				if !ok {
					return commands.Result{}, fmt.Errorf("no target card covers %s", container)
				}
				target = card
			}

			id, err := st.AddTopic(a.Kind, container, column, model.NewTopic(a.Name), "")
			if err != nil {
				return commands.Result{}, err
			}
			if !a.Link {
				return commands.Result{Message: fmt.Sprintf("added %s to %s", a.Name, column)}, nil
			}
			linkCol := resolveColumn(snap.Settings, model.KindTarget, a.LinkColumn)
			if linkCol == "" {
				linkCol = snap.Settings.Columns(model.KindTarget)[0]
			}
			if _, err := st.AddTopic(model.KindTarget, target.ID, linkCol, model.Topic{}, id); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added %s to %s and %s/%s", a.Name, column, target.Title, linkCol)}, nil
		},
		Edit: func(a commands.EditArgs) (commands.Result, error) {
			id, _, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			if !st.UpdateTopic(id, a.Patch) {
				return commands.Result{Message: "nothing changed"}, nil
			}
			return commands.Result{Message: "topic updated"}, nil
		},
		Progress: func(a commands.ProgressArgs) (commands.Result, error) {
			id, _, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			switch {
			case a.Value != nil:
				st.UpdateTopic(id, model.TopicPatch{Progress: a.Value})
			case a.Step < 0:
				st.RewindProgress(id)
			default:
				st.AdvanceProgress(id)
			}
			t, _ := st.Topic(id)
			return commands.Result{Message: fmt.Sprintf("%s is at %d%%", t.Name, t.Progress)}, nil
		},
		Delete: func(a commands.DeleteArgs) (commands.Result, error) {
			id, _, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			st.DeleteTopic(id)
			return commands.Result{Message: "topic deleted"}, nil
		},
		Move: func(a commands.MoveArgs) (commands.Result, error) {
			id, from, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			snap := st.Snapshot()
			container, err := m.resolveContainer(snap, a.To.Kind, a.To.Container)
			if err != nil {
				return commands.Result{}, err
			}
			to := model.Location{Kind: a.To.Kind, Container: container, Column: resolveColumn(snap.Settings, a.To.Kind, a.To.Column)}
			if !st.MoveTopic(id, from, to) {
				return commands.Result{}, fmt.Errorf("cannot move %s from %s to %s", id, from, to)
			}
			return commands.Result{Message: "moved to " + to.String()}, nil
		},
		Pull: func(a commands.PullArgs) (commands.Result, error) {
			id, _, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			date, err := m.resolveDate(a.Date)
			if err != nil {
				return commands.Result{}, err
			}
			column := resolveColumn(st.Settings(), model.KindDaily, a.Column)
			if !st.PullTopic(id, date, column) {
				return commands.Result{}, fmt.Errorf("topic is not on a target card or is already planned for %s", date)
			}
			return commands.Result{Message: fmt.Sprintf("pulled into %s %s", date, column)}, nil
		},
		Card: func(a commands.CardArgs) (commands.Result, error) {
			snap := st.Snapshot()
			if !a.Delete {
				if a.Kind == model.KindTarget {
					return commands.Result{}, errors.New(`target cards need dates: use "target add"`)
				}
				date, err := m.resolveDate(a.ID)
				if err != nil {
					return commands.Result{}, err
				}
				created, err := st.AddCard(model.KindDaily, date)
				if err != nil {
					return commands.Result{}, err
				}
				if !created {
					return commands.Result{Message: date + " already has a plan"}, nil
				}
				return commands.Result{Message: "added plan for " + date}, nil
			}
			id, err := m.resolveContainer(snap, a.Kind, a.ID)
			if err != nil {
				return commands.Result{}, err
			}
			var removed bool
			if a.Kind == model.KindTarget {
				removed = st.DeleteTargetCard(id)
			} else {
				removed = st.DeleteCard(a.Kind, id)
			}
			if !removed {
				return commands.Result{}, fmt.Errorf("%w: %s", store.ErrCardNotFound, a.ID)
			}
			return commands.Result{Message: "card deleted"}, nil
		},
		Target: func(a commands.TargetArgs) (commands.Result, error) {
			switch a.Action {
			case commands.TargetAdd:
				if _, err := st.AddTargetCard(a.Title, a.Start, a.End); err != nil {
					return commands.Result{}, err
				}
				return commands.Result{Message: "added target " + a.Title}, nil
			case commands.TargetEdit:
				id, err := m.resolveContainer(st.Snapshot(), model.KindTarget, a.ID)
				if err != nil {
					return commands.Result{}, err
				}
				ok, err := st.UpdateTargetCard(id, a.Title, a.Start, a.End)
				if err != nil {
					return commands.Result{}, err
				}
				if !ok {
					return commands.Result{}, fmt.Errorf("%w: %s", store.ErrCardNotFound, a.ID)
				}
				return commands.Result{Message: "target updated"}, nil
			default:
				id, err := m.resolveContainer(st.Snapshot(), model.KindTarget, a.ID)
				if err != nil {
					return commands.Result{}, err
				}
				st.DeleteTargetCard(id)
				return commands.Result{Message: "target deleted"}, nil
			}
		},
		Rename: func(a commands.RenameArgs) (commands.Result, error) {
			from, err := m.resolveDate(a.From)
			if err != nil {
				return commands.Result{}, err
			}
			to, err := m.resolveDate(a.To)
			if err != nil {
				return commands.Result{}, err
			}
			if err := st.RenameDateCard(from, to); err != nil {
				if errors.Is(err, store.ErrDateTaken) {
					return commands.Result{}, fmt.Errorf("%s already has a plan", to)
				}
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("moved plan %s to %s", from, to)}, nil
		},
		Note: func(a commands.NoteArgs) (commands.Result, error) {
			id, _, err := m.resolveTopic(a.Topic)
			if err != nil {
				return commands.Result{}, err
			}
			st.UpdateTopic(id, model.TopicPatch{Note: model.Ptr(a.Text)})
			return commands.Result{Message: "note saved"}, nil
		},
		Countdown: func(a commands.CountdownArgs) (commands.Result, error) {
			if _, err := model.ParseISODate(a.Date); err != nil {
				return commands.Result{}, err
			}
			if _, err := time.Parse("15:04", a.Time); err != nil {
				return commands.Result{}, fmt.Errorf("time %q is not HH:MM", a.Time)
			}
			settings := st.Settings()
			settings.Countdown = model.CountdownSettings{Title: a.Title, TargetDate: a.Date, TargetTime: a.Time}
			st.UpdateSettings(settings)
			return commands.Result{Message: "countdown set"}, nil
		},
		StudyType: func(a commands.StudyTypeArgs) (commands.Result, error) {
			current := st.Settings()
			var (
				next model.Settings
				err  error
				msg  string
			)
			switch a.Action {
			case commands.StudyTypeAdd:
				next, err = current.AddStudyType(a.Key, a.Name)
				msg = fmt.Sprintf("study type %s added", a.Key)
			case commands.StudyTypeRename:
				next, err = current.RenameStudyType(a.Key, a.Name)
				msg = fmt.Sprintf("study type %s renamed to %s", a.Key, a.Name)
			case commands.StudyTypeDelete:
				next, err = current.RemoveStudyType(a.Key)
				msg = fmt.Sprintf("study type %s deleted", a.Key)
			default:
				return commands.Result{}, fmt.Errorf("unknown type action %q", a.Action)
			}
			if err != nil {
				return commands.Result{}, err
			}
			st.UpdateSettings(next)
			return commands.Result{Message: msg}, nil
		},
		Subjects: func(a commands.SubjectsArgs) (commands.Result, error) {
			var subjects []string
			if !a.Reset {
				subjects = a.Subjects
			}
			next, err := st.Settings().WithSubjects(subjects)
			if err != nil {
				return commands.Result{}, err
			}
			st.UpdateSettings(next)
			return commands.Result{Message: "subjects: " + strings.Join(next.Columns(model.KindTarget), ", ")}, nil
		},
	}
}

// resolveTopic maps "selected" or a topic id to the id and one location
// holding it.
func (m Model) resolveTopic(ref string) (string, model.Location, error) {
	if strings.EqualFold(ref, commands.Selected) {
		row, ok := m.Selected()
		if !ok {
			return "", model.Location{}, errors.New("no topic selected")
		}
		return row.ID, row.Loc, nil
	}
	if _, ok := m.sess.Store.Topic(ref); !ok {
		return "", model.Location{}, fmt.Errorf("%w: %s", store.ErrTopicMissing, ref)
	}
	var loc model.Location
	if locs := m.sess.Store.Locate(ref); len(locs) > 0 {
		loc = locs[0]
	}
	return ref, loc, nil
}

// resolveContainer accepts a card id, a target title, a date word, or
// "selected" for the card under the cursor.
func (m Model) resolveContainer(snap store.Snapshot, kind model.ContainerKind, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.EqualFold(ref, commands.Selected) {
		row, ok := m.Selected()
		if !ok || row.Loc.Kind != kind {
			return "", fmt.Errorf("no %s card selected", kind)
		}
		return row.Loc.Container, nil
	}
	if kind == model.KindDaily {
		return m.resolveDate(ref)
	}
	if _, ok := snap.Data.Placements.Target[ref]; ok {
		return ref, nil
	}
	for _, card := range snap.Data.Cards {
		if card.ID == ref || strings.EqualFold(card.Title, ref) {
			return card.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", store.ErrCardNotFound, ref)
}

// resolveDate turns today, tomorrow, yesterday, YYYY-MM-DD or DD/MM/YYYY into
// a daily card key.
func (m Model) resolveDate(ref string) (string, error) {
	now := m.deps.Now()
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case "today":
		return model.DailyKey(now), nil
	case "tomorrow":
		return model.DailyKey(now.AddDate(0, 0, 1)), nil
	case "yesterday":
		return model.DailyKey(now.AddDate(0, 0, -1)), nil
	}
	if t, err := model.ParseISODate(ref); err == nil {
		return model.DailyKey(t), nil
	}
	if _, err := model.ParseDailyKey(ref); err != nil {
		return "", err
	}
	return ref, nil
}

// resolveColumn matches a configured column case-insensitively and keeps
// unknown names as typed.
func resolveColumn(settings model.Settings, kind model.ContainerKind, ref string) string {
	ref = strings.TrimSpace(ref)
	for _, col := range settings.Columns(kind) {
		if strings.EqualFold(col, ref) {
			return col
		}
	}
	return ref
}
