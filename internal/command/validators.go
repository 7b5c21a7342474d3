// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/staranto/randuser/internal/attrs"
	"github.com/staranto/randuser/internal/output"
	"github.com/staranto/randuser/internal/user"
)

// GlobalFlagsValidator checks combinations that single flag validators can't
// see.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	if c.Bool("schema") && c.IsSet("id") {
		return errors.New("--schema does not fetch, drop --id")
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

func OutputValidator(value any) error {
	if !slices.Contains(output.Formats, value.(string)) {
		return fmt.Errorf("must be one of %v", output.Formats)
	}
	return nil
}

// AttrsValidator makes sure every spec in --attrs parses.
func AttrsValidator(value any) error {
	var al attrs.AttrList
	return al.Set(value.(string))
}

func IDValidator(value any) error {
	_, err := user.ParseID(value.(string))
	return err
}

func PositiveDurationValidator(value any) error {
	if value.(time.Duration) <= 0 {
		return errors.New("must be a positive duration")
	}
	return nil
}

// URLValidator requires an absolute http or https URL.
func URLValidator(value any) error {
	u, err := url.Parse(value.(string))
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) url")
	}
	return nil
}

func NonNegativeIntValidator(value any) error {
	if value.(int) < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
