// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/meta"
)

const bashCompletionScript = `# bash completion for randuser
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_randuser()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cache completion get ui --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--url -u --timeout --color -c --tldr"

    case "$cmd" in
        get)
            local opts="$common --id --attrs -a --output -o --titles -t --schema"
            ;;
        ui)
            local opts="$common --throttle"
            ;;
        cache)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "info purge" -- "$cur") )
                return 0
            fi
            local opts="--hours"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _randuser randuser
`

const zshCompletionScript = `#compdef randuser

_randuser() {
  local -a cmds
  cmds=(
    'cache:inspect or clear the local HTTP cache'
    'completion:generate shell completion script'
    'get:fetch one user and print it'
    'ui:interactive random user screen'
  )

  local -a common
  common=(
  '(-u --url)'{-u,--url}'[users collection]:url'
  '--timeout[per-request timeout]:duration'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'randuser commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    get)
      _arguments -C \
        $common \
        '--id[user id]:id' \
        '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs' \
        '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)' \
        '(-t --titles)'{-t,--titles}'[show titles]' \
        '--schema[dump schema]'
      ;;
    ui)
      _arguments -C \
        $common \
        '--throttle[minimum time between display updates]:duration'
      ;;
    cache)
      _arguments -C \
        '1: :((info purge))' \
        '--hours[only entries older than hours]:hours'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _randuser randuser
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := Writer(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: randuser completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "randuser completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
