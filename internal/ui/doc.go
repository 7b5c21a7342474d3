// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package ui is the interactive screen behind `randuser ui`: a header, one
// button that fetches a random user, and the throttled display of the
// latest result.
package ui
