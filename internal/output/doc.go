// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package output renders users as tables, JSON, YAML or the raw document,
// honoring --attrs, --color and --titles.
package output
