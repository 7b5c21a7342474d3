// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/staranto/randuser/internal/app"
	"github.com/staranto/randuser/internal/config"
	"github.com/staranto/randuser/internal/fetcher"
	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/ui"
)

const ervin = `{"id":3,"name":"Ervin Howell","username":"Antonette","email":"Shanna@melissa.tv",` +
	`"phone":"010-692-6593-343 x156","website":"anastasia.net",` +
	`"company":{"name":"Deckow-Crist","catchPhrase":"Proactive didactic contingency","bs":"synergize scalable supply-chains"}}`

// isolate keeps the user's config file and cache out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RANDUSER_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("APPDATA", "")
	t.Setenv("HOME", dir)
	t.Setenv("RANDUSER_CACHE", "0")
	// An empty env var still counts as a flag source, so these must be
	// absent rather than blank.
	for _, k := range []string{"RANDUSER_URL", "RANDUSER_TIMEOUT", "RANDUSER_THROTTLE"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return dir
}

func usersServer(t *testing.T) (string, *int64) {
	t.Helper()
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.URL.Path == "/users/3" {
			_, _ = w.Write([]byte(ervin))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/users", &hits
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append([]string{"randuser"}, args...)
	cmd, err := InitApp(context.Background(), args)
	require.NoError(t, err)

	var buf bytes.Buffer
	cmd.Writer = &buf
	cmd.ErrWriter = &buf
	err = cmd.Run(context.Background(), args)
	return buf.String(), err
}

func TestGet(t *testing.T) {
	isolate(t)
	url, _ := usersServer(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "text",
			args:    []string{"--id", "3"},
			want:    []string{"Username", "Phone number", "Ervin Howell", "010-692-6593-343 x156"},
			notWant: []string{"Cannot find Users data"},
		},
		{
			name:    "no titles",
			args:    []string{"--id", "3", "--no-titles"},
			want:    []string{"Ervin Howell"},
			notWant: []string{"Username"},
		},
		{
			name:    "padded id",
			args:    []string{"--id", " 3"},
			want:    []string{"Ervin Howell"},
			notWant: []string{"Cannot find Users data"},
		},
		{
			name: "not found",
			args: []string{"--id", "5"},
			want: []string{"Cannot find Users data"},
		},
		{
			name: "not found json",
			args: []string{"--id", "5", "-o", "json"},
			want: []string{"null"},
		},
		{
			name:    "extra attrs",
			args:    []string{"--id", "3", "-a", "company.name:Company,!phone"},
			want:    []string{"Company", "Deckow-Crist"},
			notWant: []string{"010-692-6593-343 x156"},
		},
		{
			name: "yaml",
			args: []string{"--id", "3", "-o", "yaml", "-a", "*::u"},
			want: []string{"Username: ERVIN HOWELL\n"},
		},
		{
			name: "schema",
			args: []string{"--schema"},
			want: []string{"Schema for User --", "address.geo.lat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, append([]string{"get", "--url", url}, tt.args...)...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestGet_JSON(t *testing.T) {
	isolate(t)
	url, hits := usersServer(t)

	out, err := run(t, "get", "--url", url, "--id", "3", "--output", "json")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]string{"Username": "Ervin Howell", "Phone number": "010-692-6593-343 x156"}, got)
	assert.Equal(t, int64(1), atomic.LoadInt64(hits))
}

func TestGet_RandomID(t *testing.T) {
	isolate(t)
	url, _ := usersServer(t)

	picker = app.PickerFunc(func() string { return "3" })
	t.Cleanup(func() { picker = nil })

	out, err := run(t, "get", "--url", url)
	require.NoError(t, err)
	assert.Contains(t, out, "Ervin Howell")
}

func TestGet_InvalidFlags(t *testing.T) {
	isolate(t)
	url, hits := usersServer(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad output", args: []string{"-o", "xml"}},
		{name: "bad id", args: []string{"--id", "abc"}},
		{name: "zero id", args: []string{"--id", "0"}},
		{name: "bad timeout", args: []string{"--timeout=-1s"}},
		{name: "bad attrs", args: []string{"-a", "a:b:c:d"}},
		{name: "schema with id", args: []string{"--schema", "--id", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"get", "--url", url}, tt.args...)...)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, atomic.LoadInt64(hits))
}

func TestGet_BadURL(t *testing.T) {
	isolate(t)
	_, err := run(t, "get", "--url", "ftp://example.com/users", "--id", "3")
	assert.Error(t, err)
}

func TestGet_DiskCache(t *testing.T) {
	isolate(t)
	cacheDir := t.TempDir()
	t.Setenv("RANDUSER_CACHE", "")
	t.Setenv("RANDUSER_CACHE_DIR", cacheDir)
	url, hits := usersServer(t)

	for i := 0; i < 2; i++ {
		out, err := run(t, "get", "--url", url, "--id", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "Ervin Howell")
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(hits), "second run is served from disk")

	out, err := run(t, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, "base:    "+cacheDir)
	assert.Contains(t, out, "entries: 1")
	assert.Contains(t, out, "oldest:")

	out, err = run(t, "cache", "purge", "--hours", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 0 entries")

	out, err = run(t, "cache", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "purged 1 entry")

	entries, err := os.ReadDir(filepath.Join(cacheDir, "users"))
	require.NoError(t, err)
	for _, e := range entries {
		sub, err := os.ReadDir(filepath.Join(cacheDir, "users", e.Name()))
		require.NoError(t, err)
		assert.Empty(t, sub)
	}
}

func TestCache_Disabled(t *testing.T) {
	isolate(t)
	out, err := run(t, "cache", "info")
	require.NoError(t, err)
	assert.Equal(t, "cache disabled\n", out)

	_, err = run(t, "cache", "purge", "--hours=-2")
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	isolate(t)
	for _, sh := range []string{"bash", "zsh"} {
		out, err := run(t, "completion", sh)
		require.NoError(t, err)
		assert.Contains(t, out, "_randuser")
	}
}

func TestUI_NeedsTerminal(t *testing.T) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("stdout is a terminal")
	}
	isolate(t)
	_, err := run(t, "ui", "--throttle", "250ms")
	assert.ErrorIs(t, err, ui.ErrNoTerminal)

	_, err = run(t, "ui", "--throttle", "0s")
	assert.Error(t, err)
}

func TestInitApp(t *testing.T) {
	isolate(t)
	cmd, err := InitApp(context.Background(), []string{"randuser", "get"})
	require.NoError(t, err)

	names := make([]string, 0, len(cmd.Commands))
	for _, c := range cmd.Commands {
		names = append(names, c.Name)
	}
	assert.Subset(t, names, []string{"cache", "completion", "get", "ui"})

	get := cmd.Command("get")
	require.NotNil(t, get)
	assert.Equal(t, "get", GetMeta(get).Namespace)

	var flagNames []string
	for _, f := range get.Flags {
		flagNames = append(flagNames, f.Names()[0])
	}
	assert.True(t, slices.IsSorted(flagNames), "flags are sorted: %v", flagNames)
}

func TestConfigDefaults(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "randuser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
timeout: 2s
titles: false
ui:
  throttle: 750
`), 0o600))
	t.Setenv("RANDUSER_CFG", path)
	t.Cleanup(func() { config.Config = config.Type{} })

	_, err := config.Load("ui")
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, NewThrottleFlag("ui").Value, "bare numbers are milliseconds")
	assert.Equal(t, 2*time.Second, NewTimeoutFlag("ui").Value)
	assert.False(t, output.DefaultOptions().Titles)

	config.Config = config.Type{Source: "none", Data: map[string]interface{}{"timeout": "nope"}}
	assert.Equal(t, fetcher.DefaultTimeout, NewTimeoutFlag("get").Value, "unparseable values fall back")

	config.Config = config.Type{Source: "none", Data: map[string]interface{}{}}
	assert.Equal(t, fetcher.DefaultTimeout, NewTimeoutFlag("get").Value)
	assert.Equal(t, ui.DefaultThrottle, NewThrottleFlag("ui").Value)
	assert.True(t, output.DefaultOptions().Titles)
}
