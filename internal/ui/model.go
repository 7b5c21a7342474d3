// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package ui

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/staranto/randuser/internal/app"
	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/throttle"
	"github.com/staranto/randuser/internal/user"
	"github.com/staranto/randuser/internal/view"
)

// DefaultThrottle is how long the display holds a user before showing the
// next one.
const DefaultThrottle = 500 * time.Millisecond

const (
	header      = "Get a random user"
	buttonLabel = "get random user"
)

// ErrNoTerminal is returned by Run when stdout is not a terminal.
var ErrNoTerminal = errors.New("the ui command needs an interactive terminal")

// Config holds the screen settings.
type Config struct {
	Throttle time.Duration
	Render   output.Options
	// ThrottleOpts are passed through to the display throttle.
	ThrottleOpts []throttle.Option
}

type (
	// resultMsg reports a finished MakeCachedRequest.
	resultMsg struct {
		out app.Outcome
		err error
	}
	// displayMsg carries a value that made it through the throttle.
	displayMsg struct {
		user *user.User
	}
)

// Model is the bubbletea model of the screen.
type Model struct {
	// ctx is cancelled by Stop, which releases a pending waitForDisplay.
	ctx    context.Context
	cancel context.CancelFunc
	app    *app.App

	display *throttle.Value[*user.User]
	// emitMu serializes throttle emissions into the single-slot mailbox.
	emitMu  sync.Mutex
	emitted chan *user.User

	memo    *view.Memo
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	styles  styles

	inflight int
	shown    *user.User
	quitting bool
}

type styles struct {
	header lipgloss.Style
	button lipgloss.Style
	status lipgloss.Style
}

func newStyles(color bool) styles {
	s := styles{
		header: lipgloss.NewStyle().Bold(true).MarginBottom(1),
		button: lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()),
		status: lipgloss.NewStyle().Faint(true),
	}
	if color {
		s.header = s.header.Foreground(lipgloss.Color("#f6be00"))
		s.button = s.button.BorderForeground(lipgloss.Color("#00c8f0"))
	}
	return s
}

// New builds the screen around a. The display throttle starts empty, so the
// first frame shows the no-user notice.
func New(ctx context.Context, a *app.App, cfg Config) *Model {
	if cfg.Throttle <= 0 {
		cfg.Throttle = DefaultThrottle
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		app:     a,
		emitted: make(chan *user.User, 1),
		memo:    view.NewMemo(cfg.Render),
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: sp,
		styles:  newStyles(cfg.Render.Color),
	}

	opts := append([]throttle.Option{throttle.WithImmediateFirst()}, cfg.ThrottleOpts...)
	m.display = throttle.New[*user.User](nil, cfg.Throttle, m.deliver, opts...)
	return m
}

// deliver is the throttle's emit callback. It may run inside Update, so it
// must not block on the program; the newest value replaces any that the
// program has not picked up yet.
func (m *Model) deliver(u *user.User) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	select {
	case <-m.emitted:
	default:
	}
	m.emitted <- u
}

// waitForDisplay turns the next throttle emission into a displayMsg.
func (m *Model) waitForDisplay() tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-m.emitted:
			return displayMsg{user: u}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) request() tea.Cmd {
	return func() tea.Msg {
		out, err := m.app.MakeCachedRequest(m.ctx)
		return resultMsg{out: out, err: err}
	}
}

// Stop cancels any pending display update and outstanding commands. Nothing
// is shown after it.
func (m *Model) Stop() {
	m.display.Stop()
	m.cancel()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForDisplay())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Press):
			m.inflight++
			return m, m.request()
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case resultMsg:
		m.inflight--
		if msg.err != nil {
			log.WithError(msg.err).Error("request failed")
			return m, nil
		}
		m.display.Set(msg.out.User())
		return m, nil

	case displayMsg:
		m.shown = msg.user
		return m, m.waitForDisplay()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.header.Render(header))
	b.WriteString("\n")
	b.WriteString(m.styles.button.Render(buttonLabel))
	b.WriteString("\n")

	if m.inflight > 0 {
		b.WriteString(m.spinner.View() + m.styles.status.Render(" loading"))
	}
	b.WriteString("\n\n")

	b.WriteString(m.memo.Render(m.shown))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")

	return b.String()
}

// Shown returns the user currently on screen.
func (m *Model) Shown() *user.User {
	return m.shown
}

// Run shows the screen until the user quits or ctx is done.
func Run(ctx context.Context, a *app.App, cfg Config) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ErrNoTerminal
	}

	m := New(ctx, a, cfg)
	// Once the program is gone nothing reads the mailbox, so the listener
	// command must be released here.
	defer m.Stop()

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
