// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"log"
	"strings"

	"github.com/go-irc/irc"
)

// handleLine consumes one framed, decoded line. Per-line failures are
// isolated: a malformed line is logged and dropped, never fatal to the
// session or to unrelated channels.
func (s *Session) handleLine(line string) {
	e, err := parseLine(line)
	if err != nil {
		log.Printf("session %s: dropped line: %v", s.netID, err)
		return
	}
	s.ircEvent(e)
}

func (s *Session) ircEvent(e *irc.Message) {
	switch e.Command {
	case "ERROR":
		// Server-initiated shutdown; fatal to this session only.
		reason := e.Trailing()
		if reason == "" {
			reason = "server error"
		}
		s.teardown(reason, &ConnectionError{Server: s.server, Reason: reason})

	case "PING":
		// Answered before anything else is processed; servers
		// disconnect clients that miss the timeout.
		s.SendLine("PONG :" + e.Trailing())

	case "PONG":
		// Noise.

	case RPL_WELCOME:
		// The server may have adjusted the nick during registration.
		if nick := earg(e, 0); nick != "" {
			s.reg.mx.Lock()
			s.nick = nick
			s.reg.mx.Unlock()
		}

	case RPL_ISUPPORT:
		s.doISupport(e)

	case "NICK":
		s.doNick(e)

	case "JOIN":
		s.doJoin(e)

	case "PART":
		s.doPart(e)

	case "KICK":
		s.doKick(e)

	case "QUIT":
		s.doQuit(e)

	case "MODE":
		s.doMode(e)

	case "PRIVMSG", "NOTICE":
		s.doMessage(e)

	case RPL_NAMREPLY:
		s.doNamesReply(e)

	case RPL_ENDOFNAMES:
		s.doNamesEnd(e)

	case RPL_WHOISUSER:
		// <me> <nick> <user> <host> * :<realname>
		if len(e.Params) < 4 {
			s.violation(e, "missing whois fields")
			return
		}
		s.whoisUser(e.Params[1], e.Params[2], e.Params[3])

	case RPL_ENDOFWHOIS:
		if len(e.Params) < 2 {
			s.violation(e, "missing nick")
			return
		}
		s.whoisEnd(e.Params[1])

	case RPL_LIST:
		// <me> <channel> <usercount> :<topic>
		if len(e.Params) < 3 {
			s.violation(e, "short LIST reply")
			return
		}
		if entry := s.listReply(e.Params[1], e.Params[2], earg(e, 3)); entry != nil {
			s.emit(Event{Kind: EventChannelListEntry, Entry: entry})
		}

	case RPL_LISTEND:
		s.listEnd()
		s.emit(Event{Kind: EventChannelListEnd})

	default:
		if s.reg.Verbose {
			log.Printf("session %s: unhandled %s", s.netID, e.Command)
		}
	}
}

// doISupport handles 005: <me> <token>... :are supported by this server.
// Tokens are NAME or NAME=value. Only CASEMAPPING changes engine
// behavior; it swaps the session's fold and re-derives identity keys.
func (s *Session) doISupport(e *irc.Message) {
	params := e.Params
	if len(params) < 2 {
		return
	}
	params = params[1 : len(params)-1]
	for _, tok := range params {
		name, value := tok, ""
		if i := strings.IndexByte(tok, '='); i != -1 {
			name, value = tok[:i], tok[i+1:]
		}
		if strings.EqualFold(name, "CASEMAPPING") {
			s.setCasemapping(value)
		}
	}
}

func (s *Session) violation(e *irc.Message, reason string) {
	log.Printf("session %s: %v", s.netID,
		&ProtocolViolation{Command: e.Command, Reason: reason})
}

func (s *Session) doNick(e *irc.Message) {
	oldNick := prefixNick(e)
	newNick := e.Trailing()
	if len(e.Params) > 0 {
		newNick = e.Params[0]
	}
	if oldNick == "" || newNick == "" {
		s.violation(e, "missing nick")
		return
	}
	// One locked sweep across every channel of the session: the user
	// is never visible under both nicks at once.
	s.reg.mx.Lock()
	if s.fold(oldNick) == s.fold(s.nick) {
		s.nick = newNick
	}
	for _, c := range s.channels {
		c.renameMemberUnlocked(oldNick, newNick)
	}
	if p, ok := s.privates[s.fold(oldNick)]; ok {
		delete(s.privates, s.fold(oldNick))
		p.peer = newNick
		s.privates[s.fold(newNick)] = p
	}
	s.reg.mx.Unlock()

	s.emit(Event{Kind: EventNickChanged, Nick: oldNick, NewNick: newNick})
}

func (s *Session) doJoin(e *irc.Message) {
	channelName := earg(e, 0)
	nick := prefixNick(e)
	if channelName == "" || nick == "" {
		s.violation(e, "missing channel or nick")
		return
	}
	self := s.isSelf(nick)
	s.reg.mx.Lock()
	c := s.ensureChannelUnlocked(channelName)
	c.addMemberUnlocked(nick, 0)
	s.reg.mx.Unlock()

	s.emit(Event{Kind: EventJoined, Channel: c.name, Nick: nick})
	if self {
		// The authoritative member list comes from the NAMES snapshot.
		s.Names(channelName)
	}
}

func (s *Session) doPart(e *irc.Message) {
	channelName := earg(e, 0)
	nick := prefixNick(e)
	if channelName == "" || nick == "" {
		s.violation(e, "missing channel or nick")
		return
	}
	s.reg.mx.Lock()
	if s.isSelfUnlocked(nick) {
		s.removeChannelUnlocked(channelName)
	} else if c := s.getChannelUnlocked(channelName); c != nil {
		c.removeMemberUnlocked(nick)
	}
	s.reg.mx.Unlock()

	s.emit(Event{Kind: EventParted, Channel: channelName, Nick: nick, Body: e.Trailing()})
}

func (s *Session) doKick(e *irc.Message) {
	if len(e.Params) < 2 {
		s.violation(e, "missing kick target")
		return
	}
	channelName := e.Params[0]
	kicked := e.Params[1]
	reason := earg(e, 2)
	kicker := prefixNick(e)

	s.reg.mx.Lock()
	self := s.isSelfUnlocked(kicked)
	if self {
		// Kicked out: the channel entity goes with us.
		s.removeChannelUnlocked(channelName)
	} else if c := s.getChannelUnlocked(channelName); c != nil {
		c.removeMemberUnlocked(kicked)
	}
	s.reg.mx.Unlock()

	kind := EventKickedOther
	if self {
		kind = EventKickedSelf
	}
	s.emit(Event{Kind: kind, Channel: channelName, Nick: kicked, Actor: kicker, Body: reason})
}

func (s *Session) doQuit(e *irc.Message) {
	nick := prefixNick(e)
	if nick == "" {
		s.violation(e, "missing nick")
		return
	}
	// Sweep every channel of this session, not just one.
	s.reg.mx.Lock()
	for _, c := range s.channels {
		c.removeMemberUnlocked(nick)
	}
	s.reg.mx.Unlock()

	s.emit(Event{Kind: EventQuit, Nick: nick, Body: e.Trailing()})
}

// doMode applies nick-prefix changes (+o/-o, +v/-v) to members and
// reports each as a ModeChanged event. Other channel and user modes
// pass through as events without store mutation.
func (s *Session) doMode(e *irc.Message) {
	if len(e.Params) < 2 {
		s.violation(e, "missing mode string")
		return
	}
	target := e.Params[0]
	modes := e.Params[1]
	setter := prefixNick(e)

	if !isChannelName(target) {
		// User mode on ourselves.
		s.emit(Event{Kind: EventModeChanged, Nick: target, Actor: setter, Body: modes})
		return
	}

	type change struct {
		nick    string
		delta   string
		mode    MemberModes
		present bool
	}
	var changes []change
	plus := true
	iarg := 2
	for i := 0; i < len(modes); i++ {
		switch m := modes[i]; m {
		case '+':
			plus = true
		case '-':
			plus = false
		case 'o', 'v':
			if iarg >= len(e.Params) {
				s.violation(e, "mode "+string(m)+" without argument")
				continue
			}
			nick := e.Params[iarg]
			iarg++
			mm := ModeOperator
			if m == 'v' {
				mm = ModeVoice
			}
			sign := "-"
			if plus {
				sign = "+"
			}
			changes = append(changes, change{nick, sign + string(m), mm, plus})
		default:
			// Mode without membership meaning; some consume an
			// argument (+b, +k, +l when set), which we skip so
			// later prefix modes read the right one.
			if strings.IndexByte("bkl", m) != -1 && (plus || m != 'l') && iarg < len(e.Params) {
				iarg++
			}
		}
	}

	s.reg.mx.Lock()
	c := s.getChannelUnlocked(target)
	if c != nil {
		for _, ch := range changes {
			c.setPrefixUnlocked(ch.nick, ch.mode, ch.present)
		}
	}
	s.reg.mx.Unlock()

	for _, ch := range changes {
		s.emit(Event{Kind: EventModeChanged, Channel: target, Nick: ch.nick, Actor: setter, Body: ch.delta})
	}
}

func (s *Session) doMessage(e *irc.Message) {
	sender := prefixNick(e)
	target := earg(e, 0)
	body := e.Trailing()
	if len(e.Params) < 2 {
		s.violation(e, "missing message body")
		return
	}

	if ctcp, cargs, _, ok := parseCTCP(body); ok {
		if ctcp == "ACTION" {
			ev := Event{Kind: EventAction, Nick: sender, Body: cargs}
			if isChannelName(target) {
				ev.Channel = target
			} else {
				s.EnsurePrivate(sender)
			}
			s.emit(ev)
		} else if e.Command == "PRIVMSG" {
			s.handleCTCP(sender, ctcp, cargs)
		}
		// CTCP replies arriving in NOTICE and unknown requests are
		// dropped without a response.
		return
	}

	if isChannelName(target) {
		s.emit(Event{Kind: EventChannelMessage, Channel: target, Nick: sender, Body: body})
		return
	}
	// Private conversation opens on first inbound message.
	s.EnsurePrivate(sender)
	s.emit(Event{Kind: EventPrivateMessage, Nick: sender, Actor: sender, Body: body})
}

// doNamesReply handles 353: <me> <symbol> <channel> :<names>.
// The symbol (= public, * private, @ secret) is informational only.
func (s *Session) doNamesReply(e *irc.Message) {
	if len(e.Params) < 4 {
		s.violation(e, "short NAMES reply")
		return
	}
	channelName := e.Params[2]
	names := strings.Fields(e.Trailing())

	s.reg.mx.Lock()
	if c := s.getChannelUnlocked(channelName); c != nil {
		if !c.batchOpenUnlocked() {
			c.beginNamesBatchUnlocked()
		}
		c.accumulateNamesUnlocked(names)
	}
	s.reg.mx.Unlock()
}

func (s *Session) doNamesEnd(e *irc.Message) {
	channelName := earg(e, 1)
	var members []MemberView
	s.reg.mx.Lock()
	c := s.getChannelUnlocked(channelName)
	if c != nil {
		c.endNamesBatchUnlocked()
		members = c.membersUnlocked()
	}
	s.reg.mx.Unlock()
	if c == nil {
		return
	}
	s.emit(Event{Kind: EventNamesUpdated, Channel: c.name, Members: members})
}

func (s *Session) isSelfUnlocked(nick string) bool {
	return s.fold(nick) == s.fold(s.nick)
}
