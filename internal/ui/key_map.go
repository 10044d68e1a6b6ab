package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	search   key.Binding
	nextPage key.Binding
	prevPage key.Binding
	favorite key.Binding
	tab      key.Binding
	explore  key.Binding
	back     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		nextPage: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next page")),
		prevPage: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev page")),
		favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch")),
		explore:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "explore")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.search, k.prevPage, k.nextPage},
		{k.favorite, k.tab, k.explore},
		{k.back, k.quit},
	}
}
