package update

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	Advance key.Binding
	Rewind  key.Binding
	Delete  key.Binding
	Palette key.Binding
	Help    key.Binding
	Logout  key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "targets/daily")),
		Advance: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "progress +")),
		Rewind:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "progress -")),
		Delete:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete topic")),
		Palette: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "command")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Advance, k.Rewind, k.Delete, k.Palette, k.Help, k.Logout, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab},
		{k.Advance, k.Rewind, k.Delete},
		{k.Palette, k.Help, k.Logout, k.Quit},
	}
}

var paletteUsage = []string{
	`add <target|daily> <card> <column> <name...> [--link[=subject]]`,
	`edit <topic> field=value...   (name note timed est status priority hardness progress)`,
	`progress <topic> [next|prev|0-100]`,
	`delete <topic>`,
	`move <topic> <kind> <card> <column>`,
	`pull <topic> <date> <column>`,
	`card add|delete <kind> <id>`,
	`target add "<title>" <start> <end> | target edit <id> ... | target delete <id>`,
	`rename <old date> <new date>`,
	`note <topic> <markdown...>`,
	`countdown "<title>" <YYYY-MM-DD> [HH:MM]`,
	`type add <key> <name...> | type rename <key> <name...> | type delete <key>`,
	`subjects <a, b, ...> | subjects default`,
	`<topic> is a topic id or "selected"; dates accept today, tomorrow, DD/MM/YYYY, YYYY-MM-DD`,
}
