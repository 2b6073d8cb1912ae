// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

/*
Package discover implements the local discovery protocol.

Announcements
=============

A node announces itself by sending a discovery packet (see package peer) as
a UDP datagram to the IPv4 limited broadcast address 255.255.255.255 and to
the IPv6 link-local all-nodes group ff02::1, both on port 8008, once every
second. The packet lists every address the node may be reached at together
with its public key:

	net:192.0.2.42:8008~shs:<base64 key>;net:2001:db8::42:8008~shs:<base64 key>

Announcements are sent from an ephemeral port. A node that has no addresses
to announce stays quiet until it has some.

Reception
=========

A node listens on port 8008 on all interfaces. Each datagram is decoded as
a discovery packet; datagrams that are not valid UTF-8 or do not decode are
dropped. A node ignores its own announcements.

A peer is reported to the consumer the first time its exact packet is seen.
Repeated announcements of the same packet are dropped for as long as they
keep arriving within the seen-entry lifetime. A peer that changes its set or
order of addresses is reported again.
*/
package discover
