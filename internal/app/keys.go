package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1         key.Binding
	Tab2         key.Binding
	Tab3         key.Binding
	Tab4         key.Binding
	Tab5         key.Binding
	Tab6         key.Binding
	NextTab      key.Binding
	PrevTab      key.Binding
	Refresh      key.Binding
	BaselineDown key.Binding
	BaselineUp   key.Binding
	Period       key.Binding
	Export       key.Binding
	ExportFormat key.Binding
	Logout       key.Binding
	Help         key.Binding
	Quit         key.Binding
	Enter        key.Binding
	Escape       key.Binding
}

// baselineStep is how many days [ and ] add or remove.
const baselineStep = 7

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	km := KeyMap{}
	km = setTabKeys(km)
	km = setActionKeys(km)
	km.Enter = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	km.Escape = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close"))
	return km
}

func setTabKeys(k KeyMap) KeyMap {
	k.Tab1 = key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "overview"))
	k.Tab2 = key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "metrics"))
	k.Tab3 = key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "trends"))
	k.Tab4 = key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "insights"))
	k.Tab5 = key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "workouts"))
	k.Tab6 = key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "info"))
	k.NextTab = key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab"))
	k.PrevTab = key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab"))
	return k
}

func setActionKeys(k KeyMap) KeyMap {
	k.Refresh = key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload"))
	k.BaselineDown = key.NewBinding(key.WithKeys("["), key.WithHelp("[", "load fewer days"))
	k.BaselineUp = key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "load more days"))
	k.Period = key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "comparison period"))
	k.Export = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "export tables"))
	k.ExportFormat = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "export format"))
	k.Logout = key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "log out"))
	k.Help = key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help"))
	k.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	return k
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Refresh, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab1, k.Tab2, k.Tab3, k.Tab4, k.Tab5, k.Tab6},
		{k.NextTab, k.PrevTab},
		{k.Refresh, k.BaselineDown, k.BaselineUp, k.Period},
		{k.Export, k.ExportFormat, k.Logout},
		{k.Help, k.Quit},
	}
}
