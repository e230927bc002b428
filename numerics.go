// Copyright (C) 2020 Christopher E. Miller
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package irc

// Numeric replies consumed by the dispatcher.
// Numerics are commands like any other; these are the ones acted upon.
const (
	RPL_WELCOME    = "001"
	RPL_ISUPPORT   = "005"
	RPL_WHOISUSER  = "311"
	RPL_ENDOFWHOIS = "318"
	RPL_LIST       = "322"
	RPL_LISTEND    = "323"
	RPL_NAMREPLY   = "353"
	RPL_ENDOFNAMES = "366"
)
