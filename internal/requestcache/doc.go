// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package requestcache memoizes user lookups by identifier.
//
// A lookup for an identifier that has never been seen starts exactly one
// fetch. Callers that arrive while it is in flight wait for and share its
// result, and every later caller is answered from the Store:
//
//	c := requestcache.New(f.Fetch)
//	res := c.Get(ctx, "3")
//
// Results are kept for the life of the Cache, failures included. There is no
// eviction and no refresh.
package requestcache
