// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
)

// docgen turns docs/commands/<cmd>.md into
//   - docs/man/share/man1/randuser-<cmd>.1 (md2man over the whole page)
//   - docs/tldr/randuser-<cmd>.md (short description plus quick examples)

const bin = "randuser"

func main() {
	var (
		repoRoot      string
		onlyIfChanged bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root")
	flag.BoolVar(&onlyIfChanged, "only-if-changed", true, "only write files if content changed")
	flag.Parse()

	n, err := generate(repoRoot, onlyIfChanged)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("generated docs for %d commands\n", n)
}

// generate processes every command page under root and returns how many it
// handled.
func generate(root string, onlyIfChanged bool) (int, error) {
	commandsDir := filepath.Join(root, "docs", "commands")
	manOutDir := filepath.Join(root, "docs", "man", "share", "man1")
	tldrOutDir := filepath.Join(root, "docs", "tldr")

	for _, d := range []string{manOutDir, tldrOutDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return 0, fmt.Errorf("creating output dir: %w", err)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		return 0, fmt.Errorf("reading commands dir %s: %w", commandsDir, err)
	}

	var processed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		cmd := strings.TrimSuffix(e.Name(), ".md")
		raw, err := os.ReadFile(filepath.Join(commandsDir, e.Name()))
		if err != nil {
			return processed, fmt.Errorf("reading %s: %w", e.Name(), err)
		}

		manPath := filepath.Join(manOutDir, fmt.Sprintf("%s-%s.1", bin, cmd))
		if err := writeFileIfChanged(manPath, md2man.Render(raw), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing man page for %s: %w", cmd, err)
		}

		title, short := extractTitleAndShortDesc(string(raw))
		tldr := buildTLDR(cmd, title, short, extractQuickExamples(string(raw)))
		tldrPath := filepath.Join(tldrOutDir, fmt.Sprintf("%s-%s.md", bin, cmd))
		if err := writeFileIfChanged(tldrPath, []byte(tldr), onlyIfChanged); err != nil {
			return processed, fmt.Errorf("writing tldr page for %s: %w", cmd, err)
		}

		processed++
	}

	if processed == 0 {
		return 0, fmt.Errorf("no command markdown found under %s", commandsDir)
	}
	return processed, nil
}

func writeFileIfChanged(path string, data []byte, onlyIfChanged bool) error {
	if onlyIfChanged {
		old, err := os.ReadFile(path)
		if err == nil && bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
			return nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

var (
	h1Re      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	sectionRe = regexp.MustCompile(`(?mi)^#{2,}\s*short description\s*$`)
)

// extractTitleAndShortDesc returns the first H1 and the first paragraph under
// the "Short description" heading.
func extractTitleAndShortDesc(md string) (title, short string) {
	if m := h1Re.FindStringSubmatch(md); m != nil {
		title = strings.TrimSpace(m[1])
	}

	if loc := sectionRe.FindStringIndex(md); loc != nil {
		var para []string
		for _, ln := range strings.Split(md[loc[1]:], "\n") {
			ln = strings.TrimSpace(ln)
			if ln == "" {
				if len(para) > 0 {
					break
				}
				continue
			}
			if strings.HasPrefix(ln, "#") {
				break
			}
			para = append(para, ln)
		}
		short = strings.Join(para, " ")
	}

	if short == "" && title != "" {
		short = title + "."
	}
	return
}

type example struct {
	Desc string
	Cmd  string
}

// extractQuickExamples reads the first fenced block after "Quick examples".
// A "# comment" line describes the command line that follows it.
func extractQuickExamples(md string) []example {
	idx := strings.Index(strings.ToLower(md), "quick examples")
	if idx < 0 {
		return nil
	}
	parts := strings.SplitN(md[idx:], "```", 3)
	if len(parts) < 3 {
		return nil
	}

	// Drop the info string (e.g. "sh") on the fence line.
	code := parts[1]
	if nl := strings.Index(code, "\n"); nl >= 0 {
		code = code[nl+1:]
	}

	var (
		exs  []example
		desc string
	)
	for _, ln := range strings.Split(code, "\n") {
		s := strings.TrimSpace(ln)
		switch {
		case s == "":
		case strings.HasPrefix(s, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(s, "#"))
		default:
			if desc == "" {
				desc = "Example"
			}
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(s), " ")})
			desc = ""
		}
	}
	return exs
}

func buildTLDR(cmd, title, short string, exs []example) string {
	var b strings.Builder
	b.WriteString("# " + bin + "-" + cmd + "\n\n")
	switch {
	case short != "":
		b.WriteString("> " + short + "\n")
	case title != "":
		b.WriteString("> " + title + "\n")
	default:
		b.WriteString("> " + bin + " " + cmd + "\n")
	}
	b.WriteString("> More information: https://github.com/staranto/randuser.\n\n")

	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: bin + " " + cmd + " --help"}}
	}

	for i, ex := range exs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + ex.Desc + ":\n\n")
		b.WriteString("`" + ex.Cmd + "`\n")
	}
	return b.String()
}
