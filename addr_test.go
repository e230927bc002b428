package irc

import "testing"

func TestParseAddr(t *testing.T) {
	for _, x := range []struct {
		addr             string
		host, port, join string
		wantErr          bool
	}{
		{"irc.example.org", "irc.example.org", "6667", "", false},
		{"irc.example.org:7000", "irc.example.org", "7000", "", false},
		{"irc://irc.example.org", "irc.example.org", "6667", "", false},
		{"irc://irc.example.org:7000/lobby", "irc.example.org", "7000", "#lobby", false},
		{"irc://irc.example.org/#lobby", "irc.example.org", "6667", "#lobby", false},
		{"[::1]:6667", "::1", "6667", "", false},
		{"ircs://irc.example.org", "", "", "", true},
		{"irc.example.org:+6697", "", "", "", true},
		{"http://irc.example.org", "", "", "", true},
		{"", "", "", "", true},
	} {
		host, port, join, err := parseAddr(x.addr)
		if (err != nil) != x.wantErr {
			t.Errorf("%q: err %v wantErr %v", x.addr, err, x.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if host != x.host || port != x.port || join != x.join {
			t.Errorf("%q: got (%q, %q, %q) want (%q, %q, %q)",
				x.addr, host, port, join, x.host, x.port, x.join)
		}
	}
}

func TestNetworkID(t *testing.T) {
	for _, x := range [][2]string{
		{"irc.libera.chat:6667", "libera.chat"},
		{"tungsten.libera.chat:6697", "libera.chat"},
		{"IRC.Example.ORG:6667", "example.org"},
		{"127.0.0.1:6667", "127.0.0.1"},
		{"localhost:6667", "localhost"},
	} {
		if got := networkID(x[0]); got != x[1] {
			t.Errorf("%q: got %q want %q", x[0], got, x[1])
		}
	}
}
