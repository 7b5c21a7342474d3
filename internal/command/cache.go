// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/cacheutil"
	"github.com/staranto/randuser/internal/meta"
)

// CacheInfoAction prints what the local HTTP cache holds.
func CacheInfoAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "cache") {
		return nil
	}
	w := Writer(cmd)

	store := cacheutil.NewStore()
	if !store.Enabled() {
		fmt.Fprintln(w, "cache disabled")
		return nil
	}

	st, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "base:    %s\n", st.Base)
	fmt.Fprintf(w, "entries: %s\n", humanize.Comma(int64(st.Entries)))
	fmt.Fprintf(w, "size:    %s\n", humanize.Bytes(st.Bytes))
	if st.Entries > 0 {
		fmt.Fprintf(w, "oldest:  %s\n", humanize.Time(st.Oldest))
		fmt.Fprintf(w, "newest:  %s\n", humanize.Time(st.Newest))
	}
	return nil
}

// CachePurgeAction removes cache entries older than --hours, or all of them
// when --hours is 0.
func CachePurgeAction(ctx context.Context, cmd *cli.Command) error {
	hours := cmd.Int("hours")
	if err := FlagValidators(hours, NonNegativeIntValidator); err != nil {
		return fmt.Errorf("invalid --hours: %w", err)
	}

	store := cacheutil.NewStore()
	if !store.Enabled() {
		fmt.Fprintln(Writer(cmd), "cache disabled")
		return nil
	}

	before, err := store.Stats()
	if err != nil {
		return err
	}

	if hours == 0 {
		err = store.PurgeAll()
	} else {
		err = store.Purge(hours)
	}
	if err != nil {
		return err
	}

	after, err := store.Stats()
	if err != nil {
		return err
	}
	removed := before.Entries - after.Entries
	log.Debugf("purged %d of %d cache entries", removed, before.Entries)
	fmt.Fprintf(Writer(cmd), "purged %d %s (%s)\n",
		removed, english.PluralWord(removed, "entry", "entries"),
		humanize.Bytes(before.Bytes-after.Bytes))
	return nil
}

// CacheCommandBuilder constructs the "cache" command and its info and purge
// subcommands.
func CacheCommandBuilder(meta meta.Meta) *cli.Command {
	info := &cli.Command{
		Name:   "info",
		Usage:  "show cache location, size and age",
		Action: CacheInfoAction,
	}
	purge := &cli.Command{
		Name:  "purge",
		Usage: "remove cached responses",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "hours",
				Usage: "only remove entries older than this many hours, 0 removes everything",
				Value: 0,
			},
		},
		Action: CachePurgeAction,
	}

	return (&CommandBuilder{
		Name:      "cache",
		Usage:     "inspect or clear the local HTTP cache",
		UsageText: `randuser cache [info|purge] [options]`,
		Commands:  []*cli.Command{info, purge},
		Action:    CacheInfoAction,
		Meta:      meta,
	}).Build()
}
