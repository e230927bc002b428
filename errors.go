// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import "fmt"

// ParseError is a syntactically unusable line.
// The line is logged and dropped; the session continues.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return "parse error"
}

func (e *ParseError) Unwrap() error { return e.Err }

// ProtocolViolation is a well-formed line the engine cannot use,
// e.g. MODE with too few parameters. Logged and ignored.
type ProtocolViolation struct {
	Command string
	Reason  string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation in %s: %s", e.Command, e.Reason)
}

// ConnectionError is fatal to a single session: timeout, reset,
// explicit server ERROR. It triggers teardown and is never retried.
type ConnectionError struct {
	Server string
	Reason string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Server, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Server, e.Reason)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandRejected is a local validation failure reported synchronously
// to the caller; no state is mutated.
type CommandRejected struct {
	Reason string
}

func (e *CommandRejected) Error() string { return e.Reason }

func rejectf(format string, args ...interface{}) error {
	return &CommandRejected{Reason: fmt.Sprintf(format, args...)}
}
