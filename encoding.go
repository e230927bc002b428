// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// This was chosen to be long enough to be a minimum-ish maximum trailing irc param.
// Consider default total max 510 with:
// 	:longPrefix PRIVMSG #longDest :ircLongMsg
// Even if it's too short, it still gives room to get a consensus on the encoding.
const ircLongMsg = 350

// lineFramer turns arbitrary-sized chunks of raw bytes into complete
// lines. The trailing fragment of a chunk is retained for the next Feed.
type lineFramer struct {
	rem []byte
}

// Feed appends chunk and returns the complete lines it closes,
// already decoded to valid UTF-8. Empty lines are skipped.
// Lines end at LF; a preceding CR is stripped, so bare-LF servers work too.
func (f *lineFramer) Feed(chunk []byte) []string {
	f.rem = append(f.rem, chunk...)
	var lines []string
	for {
		i := bytes.IndexByte(f.rem, '\n')
		if i == -1 {
			return lines
		}
		line := f.rem[:i]
		f.rem = f.rem[i+1:]
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		if len(line) > 0 {
			lines = append(lines, ircToString(string(line)))
		}
	}
}

// Convert data from the server to valid UTF-8.
// Ideally do not use this for outgoing data, prefer to use UTF-8.
func ircToString(ircData string) string {
	s := ircData
	if len(s) >= ircLongMsg {
		// If it's a "long" string, see if it ends with broken utf8.
		// This can happen due to the server truncating a message in a bad place.
		// We don't want this case alone to reinterpret the whole message.
		endseq := 0
		for i := len(s) - 1; ; i-- {
			if i < 0 {
				endseq = 0 // Didn't find rune start.
				break
			}
			endseq++
			if utf8.RuneStart(s[i]) {
				break
			}
			if s[i]&0xC0 != 0x80 {
				endseq = 0 // It doesn't match utf8 or it's ASCII.
				break
			}
		}
		if endseq > 0 && endseq < utf8.UTFMax && !utf8.ValidString(s[len(s)-endseq:]) {
			// It's not valid and it's obviously not too long to be truncated.
			// We'll just exclude this broken utf8 from the end.
			s = s[:len(s)-endseq]
		}
	}
	if utf8.ValidString(s) {
		return s
	}
	return latin1toUTF8(ircData) // Use original input.
}

// latin1toUTF8 reinterprets the bytes as Latin-1 (ISO-8859-1).
// Every byte is a valid ISO-8859-1 code point, so this cannot fail;
// if the decoder surprises us anyway, mark the bad runes instead of dropping the line.
func latin1toUTF8(s string) string {
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	if err != nil {
		return strings.ToValidUTF8(s, string(utf8.RuneError))
	}
	return out
}
