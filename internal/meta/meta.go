// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package meta

import (
	"context"

	"github.com/staranto/randuser/internal/config"
)

// Meta are the meta-options that are available on all or most commands.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	// Namespace is the subcommand name, used to prefer "ns.key" config
	// values over bare keys.
	Namespace string
}
