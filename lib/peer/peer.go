// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package peer implements the local discovery packet format.
//
// A discovery packet describes one peer: the addresses it may be reached at
// and its public key. Each address is one segment, segments are separated by
// semicolons, and every segment repeats the key:
//
//	net:192.0.2.42:8008~shs:<base64 key>;ws:192.0.2.42:8989~shs2:<base64 key>
//
// A packet whose segments disagree on the key is rejected.
package peer

import (
	"fmt"
	"slices"
	"strings"
)

const (
	segmentSep = ";"
	keySep     = ':'
)

// A Peer is the decoded form of a discovery packet.
type Peer struct {
	Addresses []Address
	Key       PublicKey
}

func New(addrs []Address, key PublicKey) Peer {
	return Peer{
		Addresses: addrs,
		Key:       key,
	}
}

// Equal reports structural equality: same key, same addresses in the same
// order.
func (p Peer) Equal(other Peer) bool {
	return p.Key == other.Key && slices.Equal(p.Addresses, other.Addresses)
}

// Packet returns the discovery packet describing p. A peer without
// addresses encodes to the empty string, which does not decode.
func (p Peer) Packet() string {
	key := p.Key.String()
	segments := make([]string, len(p.Addresses))
	for i, addr := range p.Addresses {
		segments[i] = addr.String() + string(keySep) + key
	}
	return strings.Join(segments, segmentSep)
}

func (p Peer) String() string {
	return p.Packet()
}

func (p Peer) MarshalText() ([]byte, error) {
	if len(p.Addresses) == 0 {
		return nil, fmt.Errorf("%w: no addresses", ErrMalformedPacket)
	}
	return []byte(p.Packet()), nil
}

func (p *Peer) UnmarshalText(bs []byte) error {
	dec, err := Decode(string(bs))
	if err != nil {
		return err
	}
	*p = dec
	return nil
}

// Decode parses a discovery packet.
func Decode(packet string) (Peer, error) {
	if packet == "" {
		return Peer{}, fmt.Errorf("%w: empty packet", ErrMalformedPacket)
	}

	segments := strings.Split(packet, segmentSep)
	p := Peer{
		Addresses: make([]Address, 0, len(segments)),
	}
	for i, seg := range segments {
		// The key is base64 and never contains a colon, so it is whatever
		// follows the last one.
		idx := strings.LastIndexByte(seg, keySep)
		if idx < 0 {
			return Peer{}, fmt.Errorf("%w: segment %d: %w: missing key", ErrMalformedPacket, i, ErrMalformedAddress)
		}
		addr, err := ParseAddress(seg[:idx])
		if err != nil {
			return Peer{}, fmt.Errorf("%w: segment %d: %w", ErrMalformedPacket, i, err)
		}
		key, err := ParsePublicKey(seg[idx+1:])
		if err != nil {
			return Peer{}, fmt.Errorf("%w: segment %d: %w", ErrMalformedPacket, i, err)
		}
		if i == 0 {
			p.Key = key
		} else if key != p.Key {
			return Peer{}, fmt.Errorf("%w: segment %d: %w", ErrMalformedPacket, i, ErrKeyMismatch)
		}
		p.Addresses = append(p.Addresses, addr)
	}
	return p, nil
}
