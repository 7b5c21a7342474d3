// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/meta"
	"github.com/staranto/randuser/internal/ui"
)

// UICommandAction runs the interactive screen.
func UICommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "ui") {
		return nil
	}

	cfg := ui.Config{
		Throttle: cmd.Duration("throttle"),
		Render:   RenderOptions(cmd),
	}
	log.Debugf("ui throttle=%s color=%t", cfg.Throttle, cfg.Render.Color)

	return ui.Run(ctx, NewApp(cmd, picker), cfg)
}

func UICommandBuilder(meta meta.Meta) *cli.Command {
	return (&CommandBuilder{
		Name:      "ui",
		Usage:     "interactive random user screen",
		UsageText: `randuser ui [options]`,
		Flags: []cli.Flag{
			NewURLFlag("ui"),
			NewTimeoutFlag("ui"),
			NewThrottleFlag("ui"),
			NewColorFlag("ui"),
		},
		Action: UICommandAction,
		Meta:   meta,
	}).Build()
}
