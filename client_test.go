package irc

import "testing"

func TestServerErrorTearsDown(t *testing.T) {
	s := newTestSession(t)
	s.handleLine(":me!u@h JOIN #lobby")
	drain(s)

	s.handleLine("ERROR :Closing Link: banned")

	ev := expectEvent(t, s, EventSessionError)
	if ev.Body == "" {
		t.Error("error event should carry a reason")
	}
	// SessionClosed is strictly last, after all state is gone.
	ev = expectEvent(t, s, EventSessionClosed)
	if ev.Network != "example.org" {
		t.Errorf("bad event %+v", ev)
	}
	expectNoEvent(t, s)

	if s.GetChannel("#lobby") != nil {
		t.Error("channel state should be cleared")
	}
	if s.reg.Session(s.Server()) != nil {
		t.Error("session should be removed from the registry")
	}
	if err := s.SendLine("PING :x"); err == nil {
		t.Error("send after teardown should fail")
	} else if _, ok := err.(*ConnectionError); !ok {
		t.Errorf("expected *ConnectionError, got %T", err)
	}
}

func TestDisconnectQuits(t *testing.T) {
	s := newTestSession(t)
	s.Disconnect("bye")

	expectSent(t, s, "QUIT :bye")
	ev := expectEvent(t, s, EventSessionClosed)
	if ev.Kind != EventSessionClosed {
		t.Fatalf("bad event %+v", ev)
	}
	// A clean disconnect reports no error.
	expectNoEvent(t, s)
}

func TestTeardownRunsOnce(t *testing.T) {
	s := newTestSession(t)
	s.teardown("first", nil)
	s.teardown("second", nil)
	s.Disconnect("third")

	expectEvent(t, s, EventSessionClosed)
	expectNoEvent(t, s)
}

func TestCleanLine(t *testing.T) {
	if got := cleanLine("PRIVMSG #c :a\r\nQUIT"); got != "PRIVMSG #c :a QUIT" {
		t.Errorf("got %q", got)
	}
}

func TestIsChannelName(t *testing.T) {
	for _, x := range []struct {
		s  string
		ok bool
	}{
		{"#go", true},
		{"&local", true},
		{"nick", false},
		{"", false},
	} {
		if isChannelName(x.s) != x.ok {
			t.Errorf("%q: want %v", x.s, x.ok)
		}
	}
}
