// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package app ties the picker, the request cache and the displayed state
// together. Both the interactive screen and the get command drive it.
package app
