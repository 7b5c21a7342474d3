// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package cacheutil is the on-disk HTTP response cache. Successful response
// bodies are stored under a hashed key so repeat requests for the same URL can
// be answered without going back to the network.
package cacheutil
