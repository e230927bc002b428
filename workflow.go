// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"sort"
	"strconv"
	"strings"
)

// pendingBan is a ban awaiting host resolution via WHOIS.
// Keyed by folded nick in Session.pendingBans; created on request,
// consumed by the 311 reply or voided by 318, whichever comes first.
// It never outlives a single end-of-WHOIS.
type pendingBan struct {
	nick      string
	channel   string
	reason    string
	kickAfter bool
}

// BanNick applies an immediate nick ban: MODE +b nick!*@*.
// No WHOIS round trip is involved.
func (s *Session) BanNick(channel, nick, reason string, kickAfter bool) {
	s.SendLine("MODE " + channel + " +b " + nick + "!*@*")
	if kickAfter {
		s.Kick(channel, nick, reason)
	}
}

// BanHost starts the WHOIS-driven host ban workflow.
// A second request for the same nick before the first resolves
// overwrites the pending entry; last writer wins.
func (s *Session) BanHost(channel, nick, reason string, kickAfter bool) {
	s.reg.mx.Lock()
	s.pendingBans[s.fold(nick)] = &pendingBan{
		nick:      nick,
		channel:   channel,
		reason:    reason,
		kickAfter: kickAfter,
	}
	s.reg.mx.Unlock()
	s.SendLine("WHOIS " + nick)
}

// whoisUser handles 311: <me> <nick> <user> <host> * :<realname>.
// Resolves a pending ban into MODE +b (and KICK) against *!user@host.
func (s *Session) whoisUser(nick, user, host string) {
	id := s.fold(nick)
	s.reg.mx.Lock()
	ban := s.pendingBans[id]
	delete(s.pendingBans, id)
	s.reg.mx.Unlock()
	if ban == nil {
		return
	}
	hostmask := "*!" + user + "@" + host
	s.SendLine("MODE " + ban.channel + " +b " + hostmask)
	if ban.kickAfter {
		s.Kick(ban.channel, ban.nick, ban.reason)
	}
	s.emit(Event{
		Kind:    EventBanCompleted,
		Channel: ban.channel,
		Nick:    ban.nick,
		Body:    hostmask,
	})
}

// whoisEnd handles 318. A ban still pending here never got its 311
// (the nick vanished); it is voided without issuing MODE or KICK.
func (s *Session) whoisEnd(nick string) {
	s.reg.mx.Lock()
	delete(s.pendingBans, s.fold(nick))
	s.reg.mx.Unlock()
}

// ChannelListEntry is one row of a LIST reply.
type ChannelListEntry struct {
	Channel   string
	UserCount int
	Topic     string
}

// channelListQuery accumulates 322 rows until 323 closes the batch,
// deduplicating by channel name.
type channelListQuery struct {
	seen    map[string]bool
	entries []ChannelListEntry
	done    bool
}

func (s *Session) beginListQueryUnlocked() {
	s.listQuery = &channelListQuery{seen: make(map[string]bool)}
}

// listReply handles 322: <me> <channel> <usercount> :<topic>.
// Returns the accepted entry, or nil for a duplicate channel.
func (s *Session) listReply(channel, count, topic string) *ChannelListEntry {
	users, _ := strconv.Atoi(count)
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	if s.listQuery == nil || s.listQuery.done {
		s.beginListQueryUnlocked()
	}
	q := s.listQuery
	id := s.fold(channel)
	if q.seen[id] {
		return nil
	}
	q.seen[id] = true
	entry := ChannelListEntry{Channel: channel, UserCount: users, Topic: topic}
	q.entries = append(q.entries, entry)
	return &entry
}

func (s *Session) listEnd() {
	s.reg.mx.Lock()
	if s.listQuery != nil {
		s.listQuery.done = true
	}
	s.reg.mx.Unlock()
}

// ChannelList returns the entries accumulated so far whose channel name
// or topic contains filter (case-insensitive; empty matches all),
// sorted by channel name. Safe to call while a LIST is still running;
// the caller sees whole tuples only.
func (s *Session) ChannelList(filter string) []ChannelListEntry {
	filter = strings.ToLower(filter)
	s.reg.mx.Lock()
	defer s.reg.mx.Unlock()
	if s.listQuery == nil {
		return nil
	}
	var out []ChannelListEntry
	for _, e := range s.listQuery.entries {
		if filter == "" ||
			strings.Contains(strings.ToLower(e.Channel), filter) ||
			strings.Contains(strings.ToLower(e.Topic), filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.fold(out[i].Channel) < s.fold(out[j].Channel)
	})
	return out
}
