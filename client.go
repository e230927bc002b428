// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"
)

// readTimeout is the idle limit on the blocking socket read.
// Expiry is a connection error, not a wakeup.
const readTimeout = 180 * time.Second

const (
	stateConnecting int32 = iota
	stateRegistering
	stateRegistered
	stateClosing
	stateClosed
	stateFailed // terminal, reachable from any non-terminal state
)

// Session is one server connection: its socket, its registration
// nickname, and the channel/private-conversation state derived from it.
// Sessions are owned by the Registry; they are created by Connect and
// destroyed on disconnect or error.
type Session struct {
	reg    *Registry
	server string // dial address as given, e.g. "irc.example.org:6667"
	netID  string
	fold   func(string) string

	conn    net.Conn
	sendq   chan string
	disconn chan struct{} // closed exactly once on teardown
	state   int32         // atomic: state*

	// Locked by reg.mx:
	nick        string
	channels    map[string]*Channel // keyed by folded channel name
	privates    map[string]*Private // keyed by folded peer nick
	pendingBans map[string]*pendingBan
	listQuery   *channelListQuery
}

// Private is an open private conversation with one peer.
type Private struct {
	session *Session
	peer    string // display case as first seen
}

func (p *Private) Peer() string { return p.peer }

func newSession(reg *Registry, server, nick string) *Session {
	return &Session{
		reg:         reg,
		server:      server,
		netID:       networkID(server),
		fold:        GetToLowerFunc(""),
		sendq:       make(chan string, 32),
		disconn:     make(chan struct{}),
		nick:        nick,
		channels:    make(map[string]*Channel),
		privates:    make(map[string]*Private),
		pendingBans: make(map[string]*pendingBan),
	}
}

func (s *Session) getState() int32 {
	return atomic.LoadInt32(&s.state)
}

// Server returns the dial address this session was created with.
func (s *Session) Server() string { return s.server }

// NetworkID returns the stable network identifier derived from the
// server address, used to tag events.
func (s *Session) NetworkID() string { return s.netID }

// Nick returns the local nickname as last confirmed by the server.
func (s *Session) Nick() string {
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	return s.nick
}

func (s *Session) isSelf(nick string) bool {
	return s.fold(nick) == s.fold(s.Nick())
}

// setCasemapping swaps the fold announced by the server and re-keys
// everything keyed by a folded identity. Servers announce this before
// any join, but a late change still leaves the store consistent.
func (s *Session) setCasemapping(casemapping string) {
	fold := GetToLowerFunc(casemapping)
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	s.fold = fold
	channels := make(map[string]*Channel, len(s.channels))
	for _, c := range s.channels {
		c.rekeyUnlocked()
		channels[fold(c.name)] = c
	}
	s.channels = channels
	privates := make(map[string]*Private, len(s.privates))
	for _, p := range s.privates {
		privates[fold(p.peer)] = p
	}
	s.privates = privates
	bans := make(map[string]*pendingBan, len(s.pendingBans))
	for _, b := range s.pendingBans {
		bans[fold(b.nick)] = b
	}
	s.pendingBans = bans
}

// start dials the server and performs the optimistic registration:
// NICK then USER, without waiting for the welcome numeric. Commands
// issued before registration completes simply queue behind these.
func (s *Session) start(addr string) error {
	atomic.StoreInt32(&s.state, stateConnecting)
	dialer := &net.Dialer{Timeout: time.Minute}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		atomic.StoreInt32(&s.state, stateFailed)
		return &ConnectionError{Server: s.server, Reason: "connect failed", Err: err}
	}
	s.reg.mx.Lock()
	s.conn = conn
	nick := s.nick
	s.reg.mx.Unlock()

	atomic.StoreInt32(&s.state, stateRegistering)
	go s.sendLoop(conn)
	go s.recvLoop(conn)

	s.SendLine("NICK " + nick)
	s.SendLine("USER " + nick + " 0 * :" + nick)
	// Registered optimistically; strict servers may still reject
	// commands sent before 001, which is documented behavior.
	atomic.StoreInt32(&s.state, stateRegistered)
	return nil
}

// SendLine queues one outbound command; CRLF is appended on the wire.
// Returns a ConnectionError once the session is torn down.
func (s *Session) SendLine(line string) error {
	line = cleanLine(line)
	select {
	case s.sendq <- line:
		return nil
	case <-s.disconn:
		return &ConnectionError{Server: s.server, Reason: "connection closed"}
	}
}

func (s *Session) recvLoop(conn net.Conn) {
	framer := &lineFramer{}
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			for _, line := range framer.Feed(buf[:n]) {
				if s.reg.Verbose {
					log.Printf("<- [%s] %s", s.netID, line)
				}
				s.handleLine(line)
				select {
				case <-s.disconn:
					return // handleLine tore the session down
				default:
				}
			}
		}
		if err != nil {
			select {
			case <-s.disconn:
				// Closed locally; teardown already ran.
			default:
				reason := "read error"
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					reason = "connection timed out"
				}
				s.teardown(reason, err)
			}
			return
		}
	}
}

func (s *Session) sendLoop(conn net.Conn) {
	for {
		select {
		case <-s.disconn:
			return
		case line := <-s.sendq:
			select { // Check again in case disconn is also ready.
			case <-s.disconn:
				return
			default:
			}
			if s.reg.Verbose {
				log.Printf("-> [%s] %s", s.netID, line)
			}
			if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
				select {
				case <-s.disconn:
				default:
					s.teardown("write error", err)
				}
				return
			}
		}
	}
}

// Disconnect sends QUIT (best effort) and tears the session down.
// The presentation layer sees exactly one SessionClosed event after
// all state for this session is gone.
func (s *Session) Disconnect(message string) {
	if message == "" {
		message = "Leaving"
	}
	select {
	case s.sendq <- "QUIT :" + cleanLine(message):
		// Give the write loop a moment to flush the QUIT.
		time.Sleep(50 * time.Millisecond)
	default:
	}
	s.teardown("disconnected: "+message, nil)
}

// teardown runs at most once: it closes the socket (unblocking the
// reader), atomically removes every Channel and PrivateConversation of
// this session from the store, and emits SessionClosed strictly last.
// A non-nil err (or a server ERROR) additionally emits SessionError first.
func (s *Session) teardown(reason string, err error) {
	for {
		state := s.getState()
		if state == stateClosed || state == stateFailed || state == stateClosing {
			return
		}
		next := stateClosing
		if atomic.CompareAndSwapInt32(&s.state, state, next) {
			break
		}
	}
	close(s.disconn)

	s.reg.mx.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.channels = make(map[string]*Channel)
	s.privates = make(map[string]*Private)
	s.pendingBans = make(map[string]*pendingBan)
	s.listQuery = nil
	delete(s.reg.sessions, s.reg.sessionKey(s.server))
	s.reg.mx.Unlock()

	failed := err != nil
	if failed {
		atomic.StoreInt32(&s.state, stateFailed)
		cerr := &ConnectionError{Server: s.server, Reason: reason, Err: err}
		log.Printf("session %s: %v", s.netID, cerr)
		s.emit(Event{Kind: EventSessionError, Body: cerr.Error()})
	} else {
		atomic.StoreInt32(&s.state, stateClosed)
	}
	s.emit(Event{Kind: EventSessionClosed, Body: reason})
}

// GetChannel returns the joined channel by name, or nil.
func (s *Session) GetChannel(name string) *Channel {
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	return s.channels[s.fold(name)]
}

func (s *Session) getChannelUnlocked(name string) *Channel {
	return s.channels[s.fold(name)]
}

// ensureChannelUnlocked returns the channel, creating it on first use.
func (s *Session) ensureChannelUnlocked(name string) *Channel {
	id := s.fold(name)
	c := s.channels[id]
	if c == nil {
		c = newChannel(s, name)
		s.channels[id] = c
	}
	return c
}

func (s *Session) removeChannelUnlocked(name string) {
	delete(s.channels, s.fold(name))
}

// EnsurePrivate opens (or returns) the private conversation with peer.
func (s *Session) EnsurePrivate(peer string) *Private {
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	return s.ensurePrivateUnlocked(peer)
}

func (s *Session) ensurePrivateUnlocked(peer string) *Private {
	id := s.fold(peer)
	p := s.privates[id]
	if p == nil {
		p = &Private{session: s, peer: peer}
		s.privates[id] = p
	}
	return p
}

// isChannelName reports whether target names a channel rather than a nick.
func isChannelName(s string) bool {
	return len(s) > 0 && (s[0] == '#' || s[0] == '&')
}

// Outbound command helpers. Each is a single wire line; there is no
// rate limiting or flood protection.

func (s *Session) Join(channel string) error {
	return s.SendLine("JOIN " + channel)
}

func (s *Session) Part(channel string) error {
	err := s.SendLine("PART " + channel)
	if err == nil {
		s.reg.mx.Lock()
		s.removeChannelUnlocked(channel)
		s.reg.mx.Unlock()
	}
	return err
}

// SendMsg sends a PRIVMSG and echoes it back as an event so the
// presentation layer can render the local side of the conversation.
func (s *Session) SendMsg(dest, msg string) error {
	if err := s.SendLine("PRIVMSG " + dest + " :" + msg); err != nil {
		return err
	}
	self := s.Nick()
	if isChannelName(dest) {
		s.emit(Event{Kind: EventChannelMessage, Channel: dest, Nick: self, Body: msg})
	} else {
		s.EnsurePrivate(dest)
		s.emit(Event{Kind: EventPrivateMessage, Nick: dest, Actor: self, Body: msg})
	}
	return nil
}

// SendAction sends a CTCP ACTION (the /me form).
func (s *Session) SendAction(dest, text string) error {
	if err := s.SendLine("PRIVMSG " + dest + " :" + encodeCTCP("ACTION", text)); err != nil {
		return err
	}
	ev := Event{Kind: EventAction, Nick: s.Nick(), Body: text}
	if isChannelName(dest) {
		ev.Channel = dest
	} else {
		s.EnsurePrivate(dest)
		ev.Actor = ev.Nick
		ev.Nick = dest
	}
	s.emit(ev)
	return nil
}

func (s *Session) SendNotice(dest, notice string) error {
	return s.SendLine("NOTICE " + dest + " :" + notice)
}

func (s *Session) Kick(channel, nick, reason string) error {
	if reason == "" {
		reason = "No reason given"
	}
	return s.SendLine("KICK " + channel + " " + nick + " :" + reason)
}

func (s *Session) Mode(target, modes, arg string) error {
	line := "MODE " + target + " " + modes
	if arg != "" {
		line += " " + arg
	}
	return s.SendLine(line)
}

func (s *Session) Names(channel string) error {
	return s.SendLine("NAMES " + channel)
}

func (s *Session) Whois(nick string) error {
	return s.SendLine("WHOIS " + nick)
}

func (s *Session) List() error {
	s.reg.mx.Lock()
	s.beginListQueryUnlocked()
	s.reg.mx.Unlock()
	return s.SendLine("LIST")
}

func (s *Session) SetNick(nick string) error {
	return s.SendLine("NICK " + nick)
}

// Away sets the away message; an empty text clears away status.
func (s *Session) Away(text string) error {
	if text == "" {
		return s.SendLine("AWAY")
	}
	return s.SendLine("AWAY :" + text)
}

var cleanReplacer = strings.NewReplacer(
	"\r", "",
	"\n", " ",
)

// A wire line can't contain newlines.
func cleanLine(line string) string {
	return cleanReplacer.Replace(line)
}
