package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	enter    key.Binding
	tab      key.Binding
	quit     key.Binding
	sync     key.Binding
	clear    key.Binding
	resync   key.Binding
	register key.Binding
}

var keys = keyMap{
	enter:    key.NewBinding(key.WithKeys("enter")),
	tab:      key.NewBinding(key.WithKeys("tab", "shift+tab")),
	quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
	sync:     key.NewBinding(key.WithKeys("s")),
	clear:    key.NewBinding(key.WithKeys("c")),
	resync:   key.NewBinding(key.WithKeys("r")),
	register: key.NewBinding(key.WithKeys("ctrl+r")),
}
