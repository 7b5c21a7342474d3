// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/apex/log"

	"github.com/staranto/randuser/internal/fetcher"
	"github.com/staranto/randuser/internal/requestcache"
	"github.com/staranto/randuser/internal/user"
)

// Picker chooses the identifier of the next user to show.
type Picker interface {
	Pick() string
}

// RangePicker draws uniformly from [Min, Max). The default range of 1 to 10
// never yields 10.
type RangePicker struct {
	Min int
	Max int
}

// DefaultPicker is the picker used when none is given.
var DefaultPicker = RangePicker{Min: 1, Max: 10}

// Pick panics when Max <= Min.
func (p RangePicker) Pick() string {
	return fetcher.IDString(p.Min + rand.IntN(p.Max-p.Min))
}

// PickerFunc adapts a function to a Picker.
type PickerFunc func() string

func (f PickerFunc) Pick() string { return f() }

// Outcome describes one completed request.
type Outcome struct {
	ID     string
	Result fetcher.Result
}

// User is nil unless the lookup succeeded.
func (o Outcome) User() *user.User {
	return o.Result.UserOrNil()
}

// App holds the displayed user. The zero state is "no user".
type App struct {
	cache *requestcache.Cache
	pick  Picker

	mu      sync.RWMutex
	current *user.User
}

// New returns an App resolving lookups through cache. A nil pick means
// DefaultPicker.
func New(cache *requestcache.Cache, pick Picker) *App {
	if pick == nil {
		pick = DefaultPicker
	}
	return &App{cache: cache, pick: pick}
}

// MakeCachedRequest picks an identifier, waits for its cached lookup and
// makes the result the current state. Failed lookups set the state to no
// user. If anything in the sequence panics the state is left alone and the
// returned error is only good for logging.
func (a *App) MakeCachedRequest(ctx context.Context) (Outcome, error) {
	return a.run(ctx, func() string { return a.pick.Pick() })
}

// Request is MakeCachedRequest with a fixed identifier. Valid identifiers are
// cached under their canonical form, so " 3" and "3" share one lookup.
func (a *App) Request(ctx context.Context, id string) (Outcome, error) {
	if n, err := user.ParseID(id); err == nil {
		id = fetcher.IDString(n)
	}
	return a.run(ctx, func() string { return id })
}

func (a *App) run(ctx context.Context, pick func() string) (out Outcome, err error) {
	defer func() {
		if v := recover(); v != nil {
			log.WithField("id", out.ID).Errorf("request panicked: %v", v)
			out = Outcome{ID: out.ID}
			err = fmt.Errorf("request panicked: %v", v)
		}
	}()

	out.ID = pick()
	out.Result = a.cache.Get(ctx, out.ID)

	u := out.Result.UserOrNil()
	a.mu.Lock()
	a.current = u
	a.mu.Unlock()

	log.WithFields(log.Fields{
		"id":   out.ID,
		"kind": out.Result.Kind.String(),
	}).Debug("request complete")

	return out, nil
}

// Current returns the displayed user, nil when there is none.
func (a *App) Current() *user.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}

// Cache exposes the request cache, mostly for its stats.
func (a *App) Cache() *requestcache.Cache {
	return a.cache
}
