// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package peer

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// Protocol is the transport over which an address is reachable.
type Protocol int

const (
	ProtocolNet Protocol = iota
	ProtocolWs
	ProtocolWss
)

var protocolTokens = [...]string{
	ProtocolNet: "net",
	ProtocolWs:  "ws",
	ProtocolWss: "wss",
}

func (p Protocol) String() string {
	if p < 0 || int(p) >= len(protocolTokens) {
		return "Protocol(" + strconv.Itoa(int(p)) + ")"
	}
	return protocolTokens[p]
}

func ParseProtocol(s string) (Protocol, error) {
	for p, tok := range protocolTokens {
		if s == tok {
			return Protocol(p), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownProtocol, s)
}

// Handshake is the connection handshake a dialer must use at an address.
// It is advertised only.
type Handshake int

const (
	HandshakeShs Handshake = iota
	HandshakeShs2
)

var handshakeTokens = [...]string{
	HandshakeShs:  "shs",
	HandshakeShs2: "shs2",
}

func (h Handshake) String() string {
	if h < 0 || int(h) >= len(handshakeTokens) {
		return "Handshake(" + strconv.Itoa(int(h)) + ")"
	}
	return handshakeTokens[h]
}

func ParseHandshake(s string) (Handshake, error) {
	for h, tok := range handshakeTokens {
		if s == tok {
			return Handshake(h), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownHandshake, s)
}

// An Address is one endpoint at which a peer may be reached.
type Address struct {
	Protocol  Protocol
	Host      netip.Addr
	Port      uint16
	Handshake Handshake
}

// NewAddress returns an Address for host and port. Any IPv6 zone is
// dropped, since it cannot be carried on the wire.
func NewAddress(proto Protocol, host netip.Addr, port uint16, hs Handshake) Address {
	return Address{
		Protocol:  proto,
		Host:      host.WithZone(""),
		Port:      port,
		Handshake: hs,
	}
}

// String returns the wire form of the address,
// "<protocol>:<host>:<port>~<handshake>".
func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Protocol.String())
	sb.WriteByte(':')
	sb.WriteString(a.Host.WithZone("").String())
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatUint(uint64(a.Port), 10))
	sb.WriteByte('~')
	sb.WriteString(a.Handshake.String())
	return sb.String()
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(bs []byte) error {
	addr, err := ParseAddress(string(bs))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// A port is at most five decimal digits on the wire.
const maxPortDigits = 5

// ParseAddress parses the wire form of an address. The host may be an IPv4
// address or an IPv6 address, the latter optionally in brackets; the
// protocol ends at the first colon and the port starts after the last one.
func ParseAddress(s string) (Address, error) {
	network, hs, ok := strings.Cut(s, "~")
	if !ok {
		return Address{}, fmt.Errorf("%w: missing handshake in %q", ErrMalformedAddress, s)
	}
	proto, rest, ok := strings.Cut(network, ":")
	if !ok {
		return Address{}, fmt.Errorf("%w: missing host in %q", ErrMalformedAddress, s)
	}
	idx := strings.LastIndexByte(rest, ':')
	if idx < 0 {
		return Address{}, fmt.Errorf("%w: missing port in %q", ErrMalformedAddress, s)
	}
	host, port := rest[:idx], rest[idx+1:]

	var (
		addr Address
		err  error
	)
	if addr.Protocol, err = ParseProtocol(proto); err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	if addr.Host, err = netip.ParseAddr(host); err != nil {
		return Address{}, fmt.Errorf("%w: host: %w", ErrMalformedAddress, err)
	}
	if addr.Host.Zone() != "" {
		// A zone is local to the announcing host and means nothing here.
		return Address{}, fmt.Errorf("%w: host %q has a zone", ErrMalformedAddress, host)
	}
	if len(port) > maxPortDigits {
		return Address{}, fmt.Errorf("%w: port %q is too long", ErrMalformedAddress, port)
	}
	// ParseUint accepts neither signs nor whitespace, which is what we want.
	p, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("%w: port: %w", ErrMalformedAddress, err)
	}
	addr.Port = uint16(p)
	if addr.Handshake, err = ParseHandshake(hs); err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrMalformedAddress, err)
	}
	return addr, nil
}
