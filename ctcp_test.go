package irc

import (
	"strings"
	"testing"
	"time"
)

func TestParseCTCP(t *testing.T) {
	for _, x := range []struct {
		body        string
		ctcp, cargs string
		ok          bool
	}{
		{"\x01ACTION waves\x01", "ACTION", "waves", true},
		{"\x01VERSION\x01", "VERSION", "", true},
		{"\x01version\x01", "VERSION", "", true},
		{"\x01PING 12345\x01", "PING", "12345", true},
		{"\x01ACTION no trailing delim", "ACTION", "no trailing delim", true},
		{"plain message", "", "", false},
		{"", "", "", false},
	} {
		ctcp, cargs, _, ok := parseCTCP(x.body)
		if ok != x.ok || ctcp != x.ctcp || cargs != x.cargs {
			t.Errorf("%q: got (%q, %q, %v) want (%q, %q, %v)",
				x.body, ctcp, cargs, ok, x.ctcp, x.cargs, x.ok)
		}
	}
}

func TestEncodeCTCP(t *testing.T) {
	if got := encodeCTCP("ACTION", "waves"); got != "\x01ACTION waves\x01" {
		t.Errorf("got %q", got)
	}
	if got := encodeCTCP("VERSION", ""); got != "\x01VERSION\x01" {
		t.Errorf("got %q", got)
	}
}

func TestCTCPReplies(t *testing.T) {
	s := newTestSession(t)
	s.reg.Version = "testclient-1.0"

	s.handleLine(":peer!u@h PRIVMSG me :\x01VERSION\x01")
	expectSent(t, s, "NOTICE peer :\x01VERSION testclient-1.0\x01")

	s.handleLine(":peer!u@h PRIVMSG me :\x01PING 12345\x01")
	expectSent(t, s, "NOTICE peer :\x01PING 12345\x01")

	s.handleLine(":peer!u@h PRIVMSG me :\x01SOURCE\x01")
	expectSent(t, s, "NOTICE peer :\x01SOURCE "+ctcpSourceURL+"\x01")

	s.handleLine(":peer!u@h PRIVMSG me :\x01CLIENTINFO\x01")
	expectSent(t, s, "NOTICE peer :\x01CLIENTINFO "+ctcpClientInfo+"\x01")

	// Unknown requests and requests via NOTICE get no answer.
	s.handleLine(":peer!u@h PRIVMSG me :\x01BOGUS\x01")
	s.handleLine(":peer!u@h NOTICE me :\x01VERSION\x01")
	expectNoSent(t, s)
}

func TestCTCPTime(t *testing.T) {
	s := newTestSession(t)
	before := time.Now().Add(-time.Second)
	s.handleLine(":peer!u@h PRIVMSG me :\x01TIME\x01")

	var line string
	select {
	case line = <-s.sendq:
	default:
		t.Fatal("no reply sent")
	}
	const prefix = "NOTICE peer :\x01TIME "
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, ctcpDelim) {
		t.Fatalf("bad reply %q", line)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(line, prefix), ctcpDelim)
	when, err := time.ParseInLocation("2006-01-02 15:04:05", stamp, time.Local)
	if err != nil {
		t.Fatalf("bad time payload %q: %v", stamp, err)
	}
	if when.Before(before) || when.After(time.Now().Add(time.Second)) {
		t.Errorf("stamp %v is not the current time", when)
	}
}
