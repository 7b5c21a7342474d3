// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package view draws the display region: the name and phone number of the
// current user, or a notice when there is none.
package view
