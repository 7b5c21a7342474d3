// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package user

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// User is a record from the users endpoint. Values are shared between every
// caller that looked up the same identifier, so nothing mutates one after it
// has been decoded.
type User struct {
	ID       int     `json:"id" yaml:"id"`
	Email    string  `json:"email" yaml:"email"`
	Name     string  `json:"name" yaml:"name"`
	Phone    string  `json:"phone" yaml:"phone"`
	Username string  `json:"username" yaml:"username"`
	Website  string  `json:"website" yaml:"website"`
	Company  Company `json:"company" yaml:"company"`
	Address  Address `json:"address" yaml:"address"`
}

type Company struct {
	BS          string `json:"bs" yaml:"bs"`
	CatchPhrase string `json:"catchPhrase" yaml:"catchPhrase"`
	Name        string `json:"name" yaml:"name"`
}

type Address struct {
	Street  string `json:"street" yaml:"street"`
	Suite   string `json:"suite" yaml:"suite"`
	City    string `json:"city" yaml:"city"`
	Zipcode string `json:"zipcode" yaml:"zipcode"`
	Geo     Geo    `json:"geo" yaml:"geo"`
}

type Geo struct {
	Lat string `json:"lat" yaml:"lat"`
	Lng string `json:"lng" yaml:"lng"`
}

// ErrInvalidID is returned by ParseID for anything that is not the decimal
// form of a positive integer.
var ErrInvalidID = errors.New("user id must be a positive integer")

// ParseID validates a user identifier and returns its integer value.
func ParseID(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	// Only plain digits. strconv would otherwise accept a leading '+'.
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
