// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package user holds the user record returned by the users endpoint and
// helpers for validating user identifiers.
package user
