// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"strings"
	"time"
)

// CTCP is a sub-envelope inside PRIVMSG/NOTICE bodies,
// delimited by \x01 at start and end.

const ctcpDelim = "\x01"

const ctcpSourceURL = "https://github.com/stdchat/irccore"

// ctcpClientInfo lists the CTCP commands answered by handleCTCP.
const ctcpClientInfo = "ACTION CLIENTINFO PING SOURCE TIME VERSION"

// parseCTCP decodes a CTCP-framed message body.
// Returns the uppercased command, its args, the raw inner text,
// and whether the body was CTCP-framed at all.
func parseCTCP(m string) (ctcp, cargs, inner string, ok bool) {
	if len(m) == 0 || m[0] != 1 {
		return "", "", "", false
	}
	m = m[1:]
	if len(m) > 0 && m[len(m)-1] == 1 {
		m = m[:len(m)-1]
	}
	ctcp = m
	ispace := strings.IndexByte(m, ' ')
	if ispace != -1 {
		ctcp = m[:ispace]
		cargs = m[ispace+1:]
	}
	return strings.ToUpper(ctcp), cargs, m, true
}

// encodeCTCP frames a command and optional args as a CTCP body.
func encodeCTCP(ctcp, args string) string {
	if args != "" {
		return ctcpDelim + ctcp + " " + args + ctcpDelim
	}
	return ctcpDelim + ctcp + ctcpDelim
}

// handleCTCP answers a CTCP request received in a PRIVMSG.
// ACTION is not answered here; the dispatcher surfaces it as an event.
// Unknown commands are silently ignored.
func (s *Session) handleCTCP(sender, ctcp, cargs string) {
	switch ctcp {
	case "VERSION":
		s.sendCTCPReply(sender, "VERSION", s.reg.Version)
	case "TIME":
		s.sendCTCPReply(sender, "TIME", time.Now().Format("2006-01-02 15:04:05"))
	case "PING":
		s.sendCTCPReply(sender, "PING", cargs)
	case "SOURCE":
		s.sendCTCPReply(sender, "SOURCE", ctcpSourceURL)
	case "CLIENTINFO":
		s.sendCTCPReply(sender, "CLIENTINFO", ctcpClientInfo)
	}
}

func (s *Session) sendCTCPReply(dest, ctcp, args string) {
	s.SendNotice(dest, encodeCTCP(ctcp, args))
}
