// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package throttle rate-limits how often a changing value is handed on to a
// consumer.
package throttle
