// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"io"
	"net/url"
	"os"
	"os/exec"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/app"
	"github.com/staranto/randuser/internal/attrs"
	"github.com/staranto/randuser/internal/cacheutil"
	"github.com/staranto/randuser/internal/config"
	"github.com/staranto/randuser/internal/fetcher"
	"github.com/staranto/randuser/internal/meta"
	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/requestcache"
)

// DefaultAttrs are the columns shown when --attrs adds nothing.
var DefaultAttrs = []string{"name:Username", "phone:Phone number"}

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr randuser <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "randuser", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// DumpSchemaIfRequested prints the attribute paths of the provided type when
// --schema is set, and returns true if it handled the request.
func DumpSchemaIfRequested(cmd *cli.Command, t reflect.Type) bool {
	if cmd.Bool("schema") {
		output.DumpSchema(Writer(cmd), t)
		return true
	}
	return false
}

// BuildAttrs constructs an AttrList with defaults and optional extras from
// --attrs, then applies the global transform spec.
func BuildAttrs(cmd *cli.Command, defaults ...string) (attrs.AttrList, error) {
	var al attrs.AttrList
	for _, d := range defaults {
		if err := al.Set(d); err != nil {
			return nil, err
		}
	}
	if extras := cmd.String("attrs"); extras != "" {
		if err := al.Set(extras); err != nil {
			return nil, err
		}
	}
	al.SetGlobalTransformSpec()
	return al, nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// Writer is where command output goes: the root command's Writer, which
// tests replace, or stdout.
func Writer(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

// RenderOptions turns --color and --titles plus the configured palette and
// padding into output options.
func RenderOptions(cmd *cli.Command) output.Options {
	opts := output.DefaultOptions()
	opts.Palette = output.PaletteFromConfig()
	opts.Color = cmd.Bool("color")
	if hasFlag(cmd, "titles") {
		opts.Titles = cmd.Bool("titles")
	}
	return opts
}

func hasFlag(cmd *cli.Command, name string) bool {
	for _, f := range cmd.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

// NewApp wires a fetcher with its disk cache, the request cache and the app
// from --url and --timeout.
func NewApp(cmd *cli.Command, pick app.Picker) *app.App {
	base := cmd.String("url")

	scope := []string{"users"}
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		scope = append(scope, u.Host)
	}

	clean, _ := config.GetInt("cache.clean", 0)
	f := fetcher.New(base,
		fetcher.WithTimeout(cmd.Duration("timeout")),
		fetcher.WithDiskCache(cacheutil.NewStore(scope...)),
		fetcher.WithCleanHours(clean),
	)
	log.WithFields(log.Fields{"url": f.BaseURL(), "clean": clean}).Debug("fetcher ready")

	return app.New(requestcache.New(f.Fetch), pick)
}

// CommandBuilder constructs a cli.Command for subcommands using a consistent
// pattern. The builder wires metadata, adds the tldr flag and sets up the
// validator.
type CommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Commands  []*cli.Command
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (cb *CommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      cb.Name,
		Usage:     cb.Usage,
		UsageText: cb.UsageText,
		Metadata: map[string]any{
			"meta": cb.Meta,
		},
		Flags:    append(cb.Flags, newTldrFlag()),
		Commands: cb.Commands,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: cb.Action,
	}
}
