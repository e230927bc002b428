// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import "sort"

// MemberModes is the set of nick-prefix capabilities a member holds.
// Operator and voice are independent; a member can hold both at once.
type MemberModes uint8

const (
	ModeOperator MemberModes = 1 << iota
	ModeVoice
)

func (m MemberModes) Operator() bool { return m&ModeOperator != 0 }
func (m MemberModes) Voice() bool    { return m&ModeVoice != 0 }

// Prefix returns the display prefix for the highest capability held.
func (m MemberModes) Prefix() string {
	switch {
	case m.Operator():
		return "@"
	case m.Voice():
		return "+"
	}
	return ""
}

type member struct {
	nick  string // display case as last seen
	modes MemberModes
}

// MemberView is an immutable member snapshot handed to the presentation layer.
type MemberView struct {
	Nick     string
	Operator bool
	Voice    bool
}

// Channel is the membership state of one joined channel.
// All fields except name are locked by the registry mutex.
type Channel struct {
	session *Session
	name    string // display case as joined

	members map[string]member // keyed by folded nick
	batch   map[string]member // NAMES accumulation; nil when no batch open
}

func newChannel(s *Session, name string) *Channel {
	return &Channel{
		session: s,
		name:    name,
		members: make(map[string]member),
	}
}

func (c *Channel) Name() string { return c.name }

func (c *Channel) addMemberUnlocked(nick string, modes MemberModes) {
	id := c.session.fold(nick)
	if m, ok := c.members[id]; ok {
		m.modes |= modes
		m.nick = nick
		c.members[id] = m
		return
	}
	c.members[id] = member{nick: nick, modes: modes}
}

// removeMemberUnlocked is a no-op for absent nicks.
func (c *Channel) removeMemberUnlocked(nick string) bool {
	id := c.session.fold(nick)
	if _, ok := c.members[id]; !ok {
		return false
	}
	delete(c.members, id)
	return true
}

func (c *Channel) hasMemberUnlocked(nick string) bool {
	_, ok := c.members[c.session.fold(nick)]
	return ok
}

func (c *Channel) renameMemberUnlocked(oldNick, newNick string) bool {
	oldID := c.session.fold(oldNick)
	m, ok := c.members[oldID]
	if !ok {
		return false
	}
	delete(c.members, oldID)
	m.nick = newNick
	c.members[c.session.fold(newNick)] = m
	return true
}

// setPrefixUnlocked grants or revokes one capability; other capabilities
// the member holds are untouched.
func (c *Channel) setPrefixUnlocked(nick string, mode MemberModes, present bool) bool {
	id := c.session.fold(nick)
	m, ok := c.members[id]
	if !ok {
		return false
	}
	if present {
		m.modes |= mode
	} else {
		m.modes &^= mode
	}
	c.members[id] = m
	return true
}

// rekeyUnlocked re-derives member keys from the session's current fold.
// Called when the server announces a different casemapping.
func (c *Channel) rekeyUnlocked() {
	members := make(map[string]member, len(c.members))
	for _, m := range c.members {
		members[c.session.fold(m.nick)] = m
	}
	c.members = members
	if c.batch != nil {
		batch := make(map[string]member, len(c.batch))
		for _, m := range c.batch {
			batch[c.session.fold(m.nick)] = m
		}
		c.batch = batch
	}
}

// NAMES batching. The 353 replies for a channel accumulate into batch;
// the 366 reply atomically replaces the member set with the accumulated
// snapshot. A member absent from every 353 line is gone after the swap.

func (c *Channel) beginNamesBatchUnlocked() {
	c.batch = make(map[string]member)
}

func (c *Channel) batchOpenUnlocked() bool { return c.batch != nil }

// accumulateNamesUnlocked parses NAMES tokens, each a nick optionally
// preceded by prefix characters (@ operator, + voice, possibly both).
func (c *Channel) accumulateNamesUnlocked(tokens []string) {
	for _, tok := range tokens {
		var modes MemberModes
	strip:
		for len(tok) > 0 {
			switch tok[0] {
			case '@':
				modes |= ModeOperator
			case '+':
				modes |= ModeVoice
			default:
				break strip
			}
			tok = tok[1:]
		}
		if tok == "" {
			continue
		}
		id := c.session.fold(tok)
		if m, ok := c.batch[id]; ok {
			m.modes |= modes
			c.batch[id] = m
		} else {
			c.batch[id] = member{nick: tok, modes: modes}
		}
	}
}

// endNamesBatchUnlocked swaps in the accumulated snapshot.
// This is a full replace, not a merge: NAMES is authoritative.
func (c *Channel) endNamesBatchUnlocked() {
	if c.batch == nil {
		return
	}
	c.members = c.batch
	c.batch = nil
}

// membersUnlocked returns a sorted snapshot: operators first, then
// voiced, then others, alphabetical case-insensitive within each tier.
func (c *Channel) membersUnlocked() []MemberView {
	views := make([]MemberView, 0, len(c.members))
	for _, m := range c.members {
		views = append(views, MemberView{
			Nick:     m.nick,
			Operator: m.modes.Operator(),
			Voice:    m.modes.Voice(),
		})
	}
	fold := c.session.fold
	sort.Slice(views, func(i, j int) bool {
		ti, tj := memberTier(views[i]), memberTier(views[j])
		if ti != tj {
			return ti < tj
		}
		return fold(views[i].Nick) < fold(views[j].Nick)
	})
	return views
}

func memberTier(v MemberView) int {
	switch {
	case v.Operator:
		return 0
	case v.Voice:
		return 1
	}
	return 2
}

// Members returns a sorted member snapshot.
func (c *Channel) Members() []MemberView {
	c.session.reg.mx.Lock()
	defer c.session.reg.mx.Unlock()
	return c.membersUnlocked()
}

// IsOn reports whether nick is currently a member.
func (c *Channel) IsOn(nick string) bool {
	c.session.reg.mx.Lock()
	defer c.session.reg.mx.Unlock()
	return c.hasMemberUnlocked(nick)
}
