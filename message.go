// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"strings"

	"github.com/go-irc/irc"
)

// parseLine parses one complete line (no CRLF) into a wire message.
// A syntactically empty line yields a *ParseError.
// The command is uppercased so the dispatcher can match it directly;
// numerics pass through unchanged.
func parseLine(line string) (*irc.Message, error) {
	e, err := irc.ParseMessage(line)
	if err != nil {
		return nil, &ParseError{Line: line, Err: err}
	}
	e.Command = strings.ToUpper(e.Command)
	return e, nil
}

// renderLine is the inverse of parseLine up to canonical
// trailing-colon placement.
func renderLine(e *irc.Message) string {
	return e.String()
}

func earg(e *irc.Message, n int) string {
	if n >= len(e.Params) {
		return ""
	}
	return e.Params[n]
}

// prefixNick extracts the nickname from a user-originated prefix:
// the part before '!', or the whole name for server prefixes.
func prefixNick(e *irc.Message) string {
	if e.Prefix == nil {
		return ""
	}
	return e.Prefix.Name
}

// userHost returns the user and host parts of the prefix, if present.
func userHost(e *irc.Message) (user, host string) {
	if e.Prefix == nil {
		return "", ""
	}
	return e.Prefix.User, e.Prefix.Host
}
