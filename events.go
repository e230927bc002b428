// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import "time"

// EventKind tags an Event for the presentation layer.
type EventKind int

const (
	EventNone EventKind = iota
	EventJoined
	EventParted
	EventQuit
	EventNickChanged
	EventModeChanged
	EventChannelMessage
	EventPrivateMessage
	EventAction
	EventKickedSelf
	EventKickedOther
	EventBanCompleted
	EventNamesUpdated
	EventChannelListEntry
	EventChannelListEnd
	EventSessionError
	EventSessionClosed
)

var eventKindNames = map[EventKind]string{
	EventJoined:           "joined",
	EventParted:           "parted",
	EventQuit:             "quit",
	EventNickChanged:      "nick-changed",
	EventModeChanged:      "mode-changed",
	EventChannelMessage:   "channel-message",
	EventPrivateMessage:   "private-message",
	EventAction:           "action",
	EventKickedSelf:       "kicked-self",
	EventKickedOther:      "kicked-other",
	EventBanCompleted:     "ban-completed",
	EventNamesUpdated:     "names-updated",
	EventChannelListEntry: "channel-list-entry",
	EventChannelListEnd:   "channel-list-end",
	EventSessionError:     "session-error",
	EventSessionClosed:    "session-closed",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Event is an immutable payload delivered to the presentation layer.
// Field use by kind:
//
//	Joined           Channel, Nick
//	Parted           Channel, Nick, Body (part message)
//	Quit             Nick, Body (quit message)
//	NickChanged      Nick (old), NewNick
//	ModeChanged      Channel, Nick (target), Actor (setter), Body (e.g. "+o")
//	ChannelMessage   Channel, Nick (sender), Body
//	PrivateMessage   Nick (peer), Body; Actor is the sender (peer or self)
//	Action           Channel (empty for PM), Nick, Body
//	KickedSelf       Channel, Nick (self), Actor (kicker), Body (reason)
//	KickedOther      Channel, Nick (kicked), Actor (kicker), Body (reason)
//	BanCompleted     Channel, Nick (target), Body (hostmask)
//	NamesUpdated     Channel, Members
//	ChannelListEntry Entry
//	ChannelListEnd   (none)
//	SessionError     Body (human-readable reason)
//	SessionClosed    Body (reason)
//
// Network is always the session's network ID; Server its dial address.
type Event struct {
	Kind    EventKind
	Network string
	Server  string
	Channel string
	Nick    string
	NewNick string
	Actor   string
	Body    string
	Members []MemberView
	Entry   *ChannelListEntry
	Time    time.Time
}

// emit hands an event to the presentation layer in arrival order.
// The events channel is buffered; a slow consumer backpressures the
// session's reader rather than observing torn state.
func (s *Session) emit(ev Event) {
	ev.Network = s.netID
	ev.Server = s.server
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	s.reg.events <- ev
}
