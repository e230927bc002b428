package irc

import "testing"

func TestParseLine(t *testing.T) {
	for _, x := range []struct {
		line            string
		nick, user, cmd string
		params          []string
	}{
		{":irc.example.org 001 me :Welcome", "irc.example.org", "", "001", []string{"me", "Welcome"}},
		{":Nick!user@host PRIVMSG #chan :hello there", "Nick", "user", "PRIVMSG", []string{"#chan", "hello there"}},
		{"PING :token", "", "", "PING", []string{"token"}},
		{"privmsg #chan :lowercase verb", "", "", "PRIVMSG", []string{"#chan", "lowercase verb"}},
		{":a!b@c KICK #chan victim", "a", "b", "KICK", []string{"#chan", "victim"}},
	} {
		e, err := parseLine(x.line)
		if err != nil {
			t.Fatalf("%q: %v", x.line, err)
		}
		if prefixNick(e) != x.nick {
			t.Errorf("%q: nick %q want %q", x.line, prefixNick(e), x.nick)
		}
		if user, _ := userHost(e); user != x.user {
			t.Errorf("%q: user %q want %q", x.line, user, x.user)
		}
		if e.Command != x.cmd {
			t.Errorf("%q: command %q want %q", x.line, e.Command, x.cmd)
		}
		if len(e.Params) != len(x.params) {
			t.Fatalf("%q: params %q want %q", x.line, e.Params, x.params)
		}
		for i := range x.params {
			if e.Params[i] != x.params[i] {
				t.Errorf("%q: param[%d] %q want %q", x.line, i, e.Params[i], x.params[i])
			}
		}
	}
}

func TestParseLineEmpty(t *testing.T) {
	for _, line := range []string{"", "   "} {
		if _, err := parseLine(line); err == nil {
			t.Errorf("%q: expected error", line)
		} else if _, ok := err.(*ParseError); !ok {
			t.Errorf("%q: expected *ParseError, got %T", line, err)
		}
	}
}

// Parsing then rendering is the identity on canonical lines.
func TestRenderRoundTrip(t *testing.T) {
	for _, x := range [][2]string{
		// input, canonical render
		{":Nick!user@host PRIVMSG #chan :hello there", ":Nick!user@host PRIVMSG #chan :hello there"},
		{":irc.example.org 353 me = #chan :@a +b c", ":irc.example.org 353 me = #chan :@a +b c"},
		{"JOIN #chan", "JOIN #chan"},
		// A trailing param without spaces loses its optional colon.
		{"PING :token", "PING token"},
	} {
		e, err := parseLine(x[0])
		if err != nil {
			t.Fatalf("%q: %v", x[0], err)
		}
		if got := renderLine(e); got != x[1] {
			t.Errorf("round trip %q got %q want %q", x[0], got, x[1])
		}
	}
}
