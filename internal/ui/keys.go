// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Press key.Binding
	Help  key.Binding
	Quit  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Press: key.NewBinding(
			key.WithKeys("enter", " ", "g"),
			key.WithHelp("enter/space", "get random user"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Press, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Press}, {k.Help, k.Quit}}
}
