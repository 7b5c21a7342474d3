// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/config"
	"github.com/staranto/randuser/internal/fetcher"
	"github.com/staranto/randuser/internal/ui"
)

func init() {
	cfg, _ = config.Load("")
}

var cfg config.Type

// Flags keep their parsed value once applied, so each command builds its own
// schema and tldr flags instead of sharing one instance.
func newSchemaFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "schema",
		Usage:       "dump the user schema",
		HideDefault: true,
	}
}

func newTldrFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        "tldr",
		Usage:       "show tldr page",
		Hidden:      !pathHas("tldr"),
		HideDefault: true,
	}
}

// NewOutputFlags returns the flags that shape what get prints. ns is the
// command name and namespaces the config file lookups.
func NewOutputFlags(ns string) (flags []cli.Flag) {
	flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "attrs",
			Aliases: []string{"a"},
			Usage:   "comma-separated list of attributes to include in results",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"attrs", altsrc.StringSourcer(cfg.Source)),
			),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, AttrsValidator)
			},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"output", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("output", altsrc.StringSourcer(cfg.Source)),
			),
			Value: "text",
			Validator: func(value string) error {
				return FlagValidators(value, OutputValidator)
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(
				yaml.YAML(ns+"."+"titles", altsrc.StringSourcer(cfg.Source)),
				yaml.YAML("titles", altsrc.StringSourcer(cfg.Source)),
			),
			Value: true,
		},
	}

	return
}

// NewColorFlag constructs the --color flag shared by get and ui.
func NewColorFlag(ns string) *cli.BoolWithInverseFlag {
	return &cli.BoolWithInverseFlag{
		Name:    "color",
		Aliases: []string{"c"},
		Usage:   "enable colored text output",
		Sources: cli.NewValueSourceChain(
			yaml.YAML(ns+"."+"color", altsrc.StringSourcer(cfg.Source)),
			yaml.YAML("color", altsrc.StringSourcer(cfg.Source)),
		),
		Value: false,
	}
}

// NewURLFlag constructs the --url flag naming the users collection.
func NewURLFlag(ns string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "url",
		Aliases: []string{"u"},
		Usage:   "users collection to fetch from",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("RANDUSER_URL"),
		),
		Value: fetcher.DefaultBaseURL,
		Validator: func(value string) error {
			return FlagValidators(value, JammedFlagValidator, URLValidator)
		},
	}
	return NameSpacedValueChainFlagFromConfigFile(ns, cfg.Source, flag)
}

// NewTimeoutFlag constructs the per-request --timeout flag.
func NewTimeoutFlag(ns string) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "per-request timeout",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("RANDUSER_TIMEOUT"),
		),
		Value: configDuration(ns, "timeout", fetcher.DefaultTimeout),
		Validator: func(value time.Duration) error {
			return FlagValidators(value, PositiveDurationValidator)
		},
	}
}

// NewThrottleFlag constructs the --throttle flag of the ui command.
func NewThrottleFlag(ns string) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:  "throttle",
		Usage: "minimum time between display updates",
		Sources: cli.NewValueSourceChain(
			cli.EnvVar("RANDUSER_THROTTLE"),
		),
		Value: configDuration(ns, "throttle", ui.DefaultThrottle),
		Validator: func(value time.Duration) error {
			return FlagValidators(value, PositiveDurationValidator)
		},
	}
}

// configDuration is the configured value of key, ns.key first, as the flag
// default. Config durations may be strings ("750ms") or bare milliseconds,
// which the yaml value source cannot parse.
func configDuration(ns, key string, def time.Duration) time.Duration {
	candidates := []string{key}
	if ns != "" {
		candidates = []string{ns + "." + key, key}
	}
	for _, k := range candidates {
		d, err := config.GetDuration(k, 0)
		if err != nil {
			log.WithError(err).Warnf("ignoring config %s", k)
			continue
		}
		if d > 0 {
			return d
		}
	}
	return def
}

// NewIDFlag constructs the --id flag. Without it an id is picked at random.
func NewIDFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "id",
		Usage: "user id to fetch instead of a random one",
		Validator: func(value string) error {
			return FlagValidators(value, IDValidator)
		},
	}
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
