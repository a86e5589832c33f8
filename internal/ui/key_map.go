package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next   key.Binding
	prev   key.Binding
	jump   key.Binding
	mood   key.Binding
	period key.Binding
	reload key.Binding
	help   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:   key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next tab")),
		prev:   key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/h", "prev tab")),
		jump:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "jump")),
		mood:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mood")),
		period: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "time range")),
		reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.reload, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.jump},
		{k.mood, k.period, k.reload},
		{k.help, k.quit},
	}
}
