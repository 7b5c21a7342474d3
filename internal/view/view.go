// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package view

import (
	"sync"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/user"
)

// Headers are the column titles of the user table.
var Headers = []string{"Username", "Phone number"}

// NoUser is shown in place of the table when there is no user to display.
const NoUser = "Cannot find Users data"

// Render returns the display region for u. It has no side effects.
func Render(u *user.User, opts output.Options) string {
	if u == nil {
		if !opts.Color {
			return NoUser
		}
		return "Cannot find " + lipgloss.NewStyle().Italic(true).Render("Users") + " data"
	}

	rows := [][]string{{u.Name, u.Phone}}
	return output.TableString(Headers, rows, opts)
}

// Memo remembers the last render. Users are never mutated after they are
// fetched, so pointer identity is enough to know the output is unchanged.
type Memo struct {
	mu    sync.Mutex
	opts  output.Options
	valid bool
	last  *user.User
	out   string
}

// NewMemo returns a Memo that renders with opts.
func NewMemo(opts output.Options) *Memo {
	return &Memo{opts: opts}
}

// Render returns the cached output when u is the same pointer as the last
// call and renders otherwise.
func (m *Memo) Render(u *user.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.last == u {
		return m.out
	}
	m.out = Render(u, m.opts)
	m.last = u
	m.valid = true
	return m.out
}
