// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// RANDUSER_LOG env variable. Output goes to stderr unless RANDUSER_LOG_FILE
// names a file, which matters for the ui command since it owns the terminal.
func InitLogger() {
	level := strings.ToUpper(os.Getenv("RANDUSER_LOG"))
	if level == "" {
		level = "ERROR"
	}

	var w io.Writer = os.Stderr
	if path := os.Getenv("RANDUSER_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:mnd
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		} else {
			w = f
		}
	}

	log.SetHandler(NewHandler(w))

	// SetLevelFromString panics on an unknown name.
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		fmt.Fprintf(w, "unknown RANDUSER_LOG level %q, using ERROR\n", level)
		lvl = log.ErrorLevel
	}
	log.SetLevel(lvl)
}

// CustomHandler formats log messages and writes them to W.
type CustomHandler struct {
	mu sync.Mutex
	W  io.Writer
	// Now is swapped out by tests.
	Now func() time.Time
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{W: w, Now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	// Fields are sorted so lines are stable.
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.W, b.String())
	return err
}
