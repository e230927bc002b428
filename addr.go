// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// s can be:
//
//	host = default port
//	host:port = use these.
//	irc://host = default port
//	irc://host:port = use these.
//
// The URL forms can also end with /channel to join the channel.
// TLS forms (ircs://, :+port) are rejected; plaintext only.
func parseAddr(s string) (serverName, serverPort, join string, err error) {
	// https://tools.ietf.org/html/draft-butcher-irc-url-04
	var scheme, hostname, port, path string
	if strings.IndexByte(s, '/') == -1 {
		ilcolon := strings.LastIndexByte(s, ':')
		if strings.LastIndexByte(s, ']') < ilcolon {
			hostname = s[:ilcolon]
			port = s[ilcolon+1:]
		} else {
			hostname = s
		}
		// Bracketed IPv6 literal; JoinHostPort adds them back.
		hostname = strings.TrimSuffix(strings.TrimPrefix(hostname, "["), "]")
	} else {
		u, err2 := url.Parse(s)
		if err2 != nil {
			err = err2
			return
		}
		scheme = u.Scheme
		hostname = u.Hostname()
		port = u.Port()
		path = u.Path
	}
	if hostname == "" {
		err = errors.New("hostname expected")
		return
	}
	switch scheme {
	case "irc", "":
		if strings.HasPrefix(port, "+") {
			err = errors.New("TLS not supported")
			return
		}
		if port == "" {
			port = "6667"
		}
	case "ircs":
		err = errors.New("TLS not supported")
		return
	default:
		err = errors.New("unexpected protocol")
		return
	}
	serverName = hostname
	serverPort = port
	join = strings.TrimPrefix(path, "/")
	if join != "" {
		switch join[0] {
		case '#', '&':
		default:
			join = "#" + join
		}
	}
	return
}

// networkID derives a stable network identifier from a server address:
// the registrable domain of the host, e.g. "irc.libera.chat" and
// "tungsten.libera.chat" both map to "libera.chat". Addresses that
// don't resolve to a registrable domain (IPs, bare hostnames) fall
// back to the host itself.
func networkID(server string) string {
	host := server
	if h, _, err := net.SplitHostPort(server); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if net.ParseIP(host) != nil {
		return host
	}
	if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return domain
	}
	return host
}
