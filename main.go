// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/staranto/randuser/internal/cacheutil"
	"github.com/staranto/randuser/internal/command"
	"github.com/staranto/randuser/internal/config"
	mylog "github.com/staranto/randuser/internal/log"
	"github.com/staranto/randuser/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// A .env in the working directory may carry RANDUSER_* settings. It never
	// overrides the real environment.
	envErr := godotenv.Load()

	mylog.InitLogger()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		log.WithError(envErr).Warn("failed to load .env")
	}

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create cache directory when caching is enabled.
	if _, ok, err := cacheutil.EnsureBaseDir(); err != nil && ok {
		// Non-fatal: print to stderr and continue.
		fmt.Fprintln(os.Stderr, err)
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands an argument set from the config file. "@name"
// anywhere after the command is replaced by the list at "<command>.name";
// without one, "<command>.defaults" is inserted right after the command.
// Help requests skip expansion.
func mangleArguments(args []string) []string {
	// We know the first two args are going to be the executable and command.
	if strings.HasPrefix(args[1], "-") {
		return args
	}
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	out := make([]string, 2, len(args))
	copy(out, args[:2])

	idx := 2
	set := "defaults"
	rest := args[2:]
	// See if there is a @set specified. If so, that becomes the insertion
	// point and the @set entry is removed from args.
	for i, a := range rest {
		if strings.HasPrefix(a, "@") && len(a) > 1 {
			set = a[1:]
			idx += i
			rest = append(append([]string{}, rest[:i]...), rest[i+1:]...)
			break
		}
	}
	out = append(out, rest...)

	setArgs, _ := config.GetStringSlice(args[1] + "." + set)
	for _, arg := range setArgs {
		parts := strings.Fields(arg)
		out = append(out[:idx], append(parts, out[idx:]...)...)
		idx += len(parts)
	}

	log.Debugf("idx=%d, set=%s, args=%v", idx, set, out)
	return out
}
