package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap implements help.KeyMap.
type keyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Refresh key.Binding
	Sources key.Binding
	Debug   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "orbit left")),
	Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "orbit right")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "tilt up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "tilt down")),
	ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "poll now")),
	Sources: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sources")),
	Debug:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.ZoomIn, k.ZoomOut, k.Refresh, k.Sources, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.ZoomIn, k.ZoomOut},
		{k.Refresh, k.Sources, k.Debug},
		{k.Help, k.Quit},
	}
}
