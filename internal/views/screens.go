package views

import (
	"fmt"
	"strings"
)

type LoginData struct {
	Creating   bool
	EmailView  string
	PassView   string
	Focus      int
	Busy       bool
	BusyView   string
	ErrorText  string
	RestoreMsg string
}

type TopicLineData struct {
	ID       string
	Name     string
	Progress int
	Priority string
	Hardness string
	Status   string
	Selected bool
	Linked   bool
}

type ColumnData struct {
	Name   string
	Done   int
	Total  int
	Topics []TopicLineData
}

type CardData struct {
	Title    string
	Subtitle string
	Percent  float64
	Urgency  string
	Columns  []ColumnData
}

type DetailData struct {
	ID            string
	Name          string
	Progress      int
	Priority      string
	Hardness      string
	StudyStatus   string
	EstimatedTime string
	TimedNote     string
	Locations     []string
	NoteView      string
}

func RenderLogin(data LoginData) string {
	title := "sign in"
	toggle := "[ctrl+n] create an account instead"
	if data.Creating {
		title = "create account"
		toggle = "[ctrl+n] sign in to an existing account"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("studyd | "+title) + "\n\n")
	if data.RestoreMsg != "" {
		b.WriteString(dimStyle.Render(data.RestoreMsg) + "\n\n")
	}
	b.WriteString(focusMark(data.Focus == 0) + data.EmailView + "\n")
	b.WriteString(focusMark(data.Focus == 1) + data.PassView + "\n\n")
	if data.Busy {
		b.WriteString(data.BusyView + " working...\n")
	} else if data.ErrorText != "" {
		b.WriteString(errorStyle.Render(data.ErrorText) + "\n")
	}
	b.WriteString(footerStyle.Render("[tab] next field  [enter] submit  " + toggle + "  [ctrl+c] quit"))
	return panelStyle.Render(b.String())
}

func focusMark(on bool) string {
	if on {
		return cursorStyle.Render("> ")
	}
	return "  "
}

// RenderProgressBar draws a fixed-width bar for a fraction in [0,1].
func RenderProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func RenderCard(data CardData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title))
	if data.Urgency != "" {
		b.WriteString(" " + urgencyBadge(data.Urgency))
	}
	b.WriteString("\n")
	if data.Subtitle != "" {
		b.WriteString(dimStyle.Render(data.Subtitle) + "\n")
	}
	b.WriteString(fmt.Sprintf("%s %3.0f%%\n", RenderProgressBar(data.Percent/100, 20), data.Percent))
	for _, col := range data.Columns {
		b.WriteString(fmt.Sprintf("  %s (%d/%d)\n", col.Name, col.Done, col.Total))
		if len(col.Topics) == 0 {
			b.WriteString(dimStyle.Render("    (empty)") + "\n")
			continue
		}
		for _, t := range col.Topics {
			b.WriteString("  " + RenderTopicLine(t) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderTopicLine(t TopicLineData) string {
	cursor := "  "
	if t.Selected {
		cursor = cursorStyle.Render("> ")
	}
	name := t.Name
	if t.Progress >= 100 {
		name = doneStyle.Render(name)
	}
	line := fmt.Sprintf("%s%3d%% [%s] %s", cursor, t.Progress, t.Hardness, name)
	if t.Priority == "high" {
		line += " !"
	}
	if t.Status != "" {
		line += dimStyle.Render(" (" + t.Status + ")")
	}
	if t.Linked {
		line += dimStyle.Render(" *")
	}
	return line
}

func urgencyBadge(u string) string {
	switch u {
	case "urgent":
		return errorStyle.Render("[URGENT]")
	case "soon":
		return countdownStyle.Render("[SOON]")
	default:
		return statusStyle.Render("[OK]")
	}
}

func RenderDetail(data DetailData) string {
	if data.ID == "" {
		return "topic:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Name) + "\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.ID))
	b.WriteString(fmt.Sprintf("progress: %s %d%%\n", RenderProgressBar(float64(data.Progress)/100, 10), data.Progress))
	b.WriteString(fmt.Sprintf("priority: %s  hardness: %s\n", data.Priority, data.Hardness))
	if data.StudyStatus != "" {
		b.WriteString(fmt.Sprintf("status: %s\n", data.StudyStatus))
	}
	if data.EstimatedTime != "" {
		b.WriteString(fmt.Sprintf("estimate: %s\n", data.EstimatedTime))
	}
	if data.TimedNote != "" {
		b.WriteString(fmt.Sprintf("timed: %s\n", data.TimedNote))
	}
	if len(data.Locations) > 0 {
		b.WriteString("filed under:\n")
		for _, loc := range data.Locations {
			b.WriteString("- " + loc + "\n")
		}
	}
	if data.NoteView != "" {
		b.WriteString("\n" + data.NoteView)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelp(bindings []string) string {
	return "help:\n" + strings.Join(bindings, "\n")
}
