// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package requestcache

import "github.com/apex/log"

// Observer receives cache lifecycle events. Implementations must be safe
// for concurrent use.
type Observer interface {
	On(eventData EventData)
}

// Event represents a cache event type.
type Event int

const (
	// EventHit is emitted when a lookup finds a stored result.
	EventHit Event = iota
	// EventMiss is emitted when a lookup invokes the fetch function.
	EventMiss
	// EventDedup is emitted when a concurrent caller shares an in-flight
	// lookup instead of triggering a new one.
	EventDedup
)

func (e Event) String() string {
	switch e {
	case EventHit:
		return "hit"
	case EventMiss:
		return "miss"
	case EventDedup:
		return "dedup"
	default:
		return "unknown"
	}
}

// EventData carries the details of a cache event.
type EventData struct {
	Event Event
	ID    string
}

// LogObserver writes every event at debug level.
type LogObserver struct{}

func (LogObserver) On(e EventData) {
	log.WithField("id", e.ID).Debugf("request cache %s", e.Event)
}
