// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"net"
	"strings"
	"sync"
)

// Registry owns all live sessions and the event stream consumed by the
// presentation layer. One mutex guards the whole store; mutations hold
// it for the duration of a single protocol step, so readers see whole
// states only.
type Registry struct {
	mx       sync.Mutex
	sessions map[string]*Session // keyed by sessionKey
	events   chan Event
	closed   bool

	Verbose bool
	Version string // CTCP VERSION reply
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		events:   make(chan Event, 128),
		Version:  "irccore",
	}
}

// Events is the ordered stream of state-change events.
// Consume it promptly; a stalled consumer backpressures the sessions.
func (r *Registry) Events() <-chan Event {
	return r.events
}

func (r *Registry) sessionKey(server string) string {
	return strings.ToLower(server)
}

// Connect dials addr (any form parseAddr accepts) and registers with
// nick. One session per server address; a duplicate is rejected.
// There is no automatic reconnection: a lost session stays gone until
// Connect is called again.
func (r *Registry) Connect(addr, nick string) (*Session, error) {
	if nick == "" {
		return nil, rejectf("nickname required")
	}
	host, port, join, err := parseAddr(addr)
	if err != nil {
		return nil, rejectf("bad server address %q: %v", addr, err)
	}
	server := net.JoinHostPort(host, port)

	s := newSession(r, server, nick)
	key := r.sessionKey(server)
	r.mx.Lock()
	if r.closed {
		r.mx.Unlock()
		return nil, rejectf("registry closed")
	}
	if _, ok := r.sessions[key]; ok {
		r.mx.Unlock()
		return nil, rejectf("already connected to %s", server)
	}
	r.sessions[key] = s
	r.mx.Unlock()

	if err := s.start(server); err != nil {
		r.mx.Lock()
		delete(r.sessions, key)
		r.mx.Unlock()
		return nil, err
	}
	if join != "" {
		s.Join(join)
	}
	return s, nil
}

// Session returns the live session for server, or nil.
func (r *Registry) Session(server string) *Session {
	r.mx.Lock()
	defer r.mx.Unlock()
	return r.sessions[r.sessionKey(server)]
}

// Sessions returns a snapshot of all live sessions.
func (r *Registry) Sessions() []*Session {
	r.mx.Lock()
	defer r.mx.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Disconnect quits the session for server with the given message.
func (r *Registry) Disconnect(server, message string) error {
	s := r.Session(server)
	if s == nil {
		return rejectf("not connected to %s", server)
	}
	s.Disconnect(message)
	return nil
}

// Close disconnects every session. The events channel stays open so
// the final SessionClosed events can drain.
func (r *Registry) Close() {
	r.mx.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mx.Unlock()
	for _, s := range sessions {
		s.Disconnect("")
	}
}

// Command interprets one line of user input against a session and a
// current target (channel or nick; may be empty). A line not starting
// with a slash is a message to the target. Unknown commands and
// commands missing required arguments are rejected without any wire
// traffic.
func (r *Registry) Command(s *Session, target, text string) error {
	if !strings.HasPrefix(text, "/") {
		if s == nil {
			return rejectf("not connected")
		}
		if target == "" {
			return rejectf("no target for message")
		}
		return s.SendMsg(target, text)
	}

	cmd, args := text[1:], ""
	if i := strings.IndexByte(cmd, ' '); i != -1 {
		cmd, args = cmd[:i], strings.TrimSpace(cmd[i+1:])
	}
	cmd = strings.ToLower(cmd)

	// /server works without a session; everything else needs one.
	if cmd == "server" {
		addr, nick := splitWord(args)
		if addr == "" {
			return rejectf("usage: /server <address> [nick]")
		}
		if nick == "" {
			if s == nil {
				return rejectf("usage: /server <address> <nick>")
			}
			nick = s.Nick()
		}
		_, err := r.Connect(addr, nick)
		return err
	}
	if s == nil {
		return rejectf("not connected")
	}

	needTarget := func() (string, error) {
		if target == "" {
			return "", rejectf("/%s needs a channel", cmd)
		}
		return target, nil
	}

	switch cmd {
	case "join", "j":
		if args == "" {
			return rejectf("usage: /join <channel>")
		}
		return s.Join(args)
	case "part", "leave":
		ch := args
		if ch == "" {
			var err error
			if ch, err = needTarget(); err != nil {
				return err
			}
		}
		return s.Part(ch)
	case "quit":
		s.Disconnect(args)
		return nil
	case "me":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		return s.SendAction(ch, args)
	case "msg", "query":
		dest, msg := splitWord(args)
		if dest == "" || msg == "" {
			return rejectf("usage: /msg <target> <text>")
		}
		return s.SendMsg(dest, msg)
	case "notice":
		dest, msg := splitWord(args)
		if dest == "" || msg == "" {
			return rejectf("usage: /notice <target> <text>")
		}
		return s.SendNotice(dest, msg)
	case "nick":
		if args == "" {
			return rejectf("usage: /nick <newnick>")
		}
		return s.SetNick(args)
	case "list":
		return s.List()
	case "names":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		return s.Names(ch)
	case "whois":
		if args == "" {
			return rejectf("usage: /whois <nick>")
		}
		return s.Whois(args)
	case "away":
		return s.Away(args)
	case "kick":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		nick, reason := splitWord(args)
		if nick == "" {
			return rejectf("usage: /kick <nick> [reason]")
		}
		return s.Kick(ch, nick, reason)
	case "ban":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		nick, reason := splitWord(args)
		if nick == "" {
			return rejectf("usage: /ban <nick> [reason]")
		}
		s.BanHost(ch, nick, reason, false)
		return nil
	case "kickban", "kb":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		nick, reason := splitWord(args)
		if nick == "" {
			return rejectf("usage: /kickban <nick> [reason]")
		}
		s.BanHost(ch, nick, reason, true)
		return nil
	case "op", "deop", "voice", "devoice":
		ch, err := needTarget()
		if err != nil {
			return err
		}
		if args == "" {
			return rejectf("usage: /%s <nick>", cmd)
		}
		modes := map[string]string{
			"op": "+o", "deop": "-o", "voice": "+v", "devoice": "-v",
		}[cmd]
		return s.Mode(ch, modes, args)
	case "mode":
		dest, rest := splitWord(args)
		if dest == "" {
			return rejectf("usage: /mode <target> <modes> [args]")
		}
		modes, arg := splitWord(rest)
		return s.Mode(dest, modes, arg)
	case "nickserv", "ns":
		if args == "" {
			return rejectf("usage: /%s <text>", cmd)
		}
		return s.SendMsg("NickServ", args)
	case "chanserv", "cs":
		if args == "" {
			return rejectf("usage: /%s <text>", cmd)
		}
		return s.SendMsg("ChanServ", args)
	case "raw", "quote":
		if args == "" {
			return rejectf("usage: /%s <line>", cmd)
		}
		return s.SendLine(args)
	}
	return rejectf("unknown command /%s", cmd)
}

func splitWord(s string) (word, rest string) {
	if i := strings.IndexByte(s, ' '); i != -1 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
