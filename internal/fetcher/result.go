// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package fetcher

import (
	"github.com/staranto/randuser/internal/user"
)

// Kind classifies the outcome of a fetch.
type Kind int

const (
	KindSuccess Kind = iota
	// KindNotFound is a 404 from the users endpoint.
	KindNotFound
	// KindBadStatus is any other non-2xx response.
	KindBadStatus
	// KindTransportError covers connection failures, timeouts and anything
	// that went wrong before a status code was seen.
	KindTransportError
	// KindMalformed is a 2xx response whose body is not a user document.
	KindMalformed
	// KindInvalidID means no request was made because the identifier was not
	// a positive integer.
	KindInvalidID
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not-found"
	case KindBadStatus:
		return "bad-status"
	case KindTransportError:
		return "transport-error"
	case KindMalformed:
		return "malformed"
	case KindInvalidID:
		return "invalid-id"
	default:
		return "unknown"
	}
}

// Result is the outcome of fetching one user. User is non-nil only when Kind
// is KindSuccess; Err carries the cause otherwise.
type Result struct {
	ID     string
	Kind   Kind
	User   *user.User
	Status int
	Err    error
	// FromDisk is set when the body came from the local HTTP cache.
	FromDisk bool
}

// OK reports whether the result carries a user.
func (r Result) OK() bool {
	return r.Kind == KindSuccess && r.User != nil
}

// UserOrNil collapses the result to the nullable form the display layer
// works with.
func (r Result) UserOrNil() *user.User {
	if r.OK() {
		return r.User
	}
	return nil
}
