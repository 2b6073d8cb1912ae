// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package peer

import "errors"

// Decoding errors. Errors returned from ParseAddress match
// ErrMalformedAddress; errors returned from Decode match ErrMalformedPacket
// and, where applicable, the more specific cause.
var (
	ErrMalformedAddress   = errors.New("malformed address")
	ErrUnknownProtocol    = errors.New("unknown protocol")
	ErrUnknownHandshake   = errors.New("unknown handshake")
	ErrMalformedPacket    = errors.New("malformed packet")
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
	ErrKeyMismatch        = errors.New("key mismatch")
)
