// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/app"
	"github.com/staranto/randuser/internal/attrs"
	"github.com/staranto/randuser/internal/meta"
	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/user"
	"github.com/staranto/randuser/internal/view"
)

// picker is swapped out by tests that need a known random id.
var picker app.Picker

// GetCommandAction is the action handler for the "get" subcommand. It fetches
// one user, random unless --id is given, and prints it according to the
// common output/attr flags.
func GetCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args)

	if ShortCircuitTLDR(ctx, cmd, "get") {
		return nil
	}
	if DumpSchemaIfRequested(cmd, reflect.TypeOf(user.User{})) {
		return nil
	}

	al, err := BuildAttrs(cmd, DefaultAttrs...)
	if err != nil {
		return err
	}
	log.Debugf("attrs: %v", al.String())

	a := NewApp(cmd, picker)

	var out app.Outcome
	if id := cmd.String("id"); id != "" {
		out, err = a.Request(ctx, id)
	} else {
		out, err = a.MakeCachedRequest(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	log.WithFields(log.Fields{
		"id":   out.ID,
		"kind": out.Result.Kind.String(),
		"disk": out.Result.FromDisk,
	}).Debug("get complete")

	return emitUser(Writer(cmd), a.Current(), cmd.String("output"), al, RenderOptions(cmd))
}

// emitUser prints u, or the absence of one in the shape of the format.
func emitUser(w io.Writer, u *user.User, format string, al attrs.AttrList, opts output.Options) error {
	if u != nil {
		return output.Emit(w, u, format, al, opts)
	}

	var err error
	switch format {
	case "text", "":
		_, err = fmt.Fprintln(w, view.Render(nil, opts))
	default:
		_, err = fmt.Fprintln(w, "null")
	}
	return err
}

// GetCommandBuilder constructs the cli.Command definition for the "get"
// command, wiring flags, metadata, and the action/validator handlers.
func GetCommandBuilder(meta meta.Meta) *cli.Command {
	flags := append([]cli.Flag{
		NewIDFlag(),
		NewURLFlag("get"),
		NewTimeoutFlag("get"),
		NewColorFlag("get"),
		newSchemaFlag(),
	}, NewOutputFlags("get")...)

	return (&CommandBuilder{
		Name:      "get",
		Usage:     "fetch one user and print it",
		UsageText: `randuser get [--id N] [options]`,
		Flags:     flags,
		Action:    GetCommandAction,
		Meta:      meta,
	}).Build()
}
