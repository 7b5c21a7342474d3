// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = "# randuser get\n\n" +
	"## Short description\n\n" +
	"Fetch one user and print it.\n" +
	"Random unless --id is given.\n\n" +
	"## Quick examples\n\n" +
	"```sh\n" +
	"# Print a random user\n" +
	"randuser get\n\n" +
	"# Print user 3 as JSON\n" +
	"randuser get   --id 3 -o json\n" +
	"randuser get --schema\n" +
	"```\n"

func TestExtractTitleAndShortDesc(t *testing.T) {
	title, short := extractTitleAndShortDesc(page)
	assert.Equal(t, "randuser get", title)
	assert.Equal(t, "Fetch one user and print it. Random unless --id is given.", short)

	title, short = extractTitleAndShortDesc("# only a title\n")
	assert.Equal(t, "only a title", title)
	assert.Equal(t, "only a title.", short)
}

func TestExtractQuickExamples(t *testing.T) {
	exs := extractQuickExamples(page)
	assert.Equal(t, []example{
		{Desc: "Print a random user", Cmd: "randuser get"},
		{Desc: "Print user 3 as JSON", Cmd: "randuser get --id 3 -o json"},
		{Desc: "Example", Cmd: "randuser get --schema"},
	}, exs)

	assert.Nil(t, extractQuickExamples("# nothing here\n"))
}

func TestBuildTLDR(t *testing.T) {
	got := buildTLDR("ui", "randuser ui", "", nil)
	assert.Equal(t, "# randuser-ui\n\n"+
		"> randuser ui\n"+
		"> More information: https://github.com/staranto/randuser.\n\n"+
		"- Show help for the command:\n\n"+
		"`randuser ui --help`\n", got)
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "commands"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "commands", "get.md"), []byte(page), 0o644))

	n, err := generate(root, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	man, err := os.ReadFile(filepath.Join(root, "docs", "man", "share", "man1", "randuser-get.1"))
	require.NoError(t, err)
	assert.NotEmpty(t, man)

	tldr, err := os.ReadFile(filepath.Join(root, "docs", "tldr", "randuser-get.md"))
	require.NoError(t, err)
	assert.Contains(t, string(tldr), "`randuser get --id 3 -o json`")

	_, err = generate(t.TempDir(), true)
	assert.Error(t, err)
}
