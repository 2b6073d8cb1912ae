// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"log/slog"
	"net"
	"net/netip"

	"github.com/cosmoline/cosmoline/internal/slogutil"
	"github.com/cosmoline/cosmoline/lib/peer"
)

// An AddressLister provides the addresses this node announces. It is
// consulted before every announcement, so implementations may return a
// different set over time. An empty result suppresses the announcement.
type AddressLister interface {
	AdvertisedAddresses() []peer.Address
}

// StaticAddresses announces a fixed list of addresses.
type StaticAddresses []peer.Address

func (s StaticAddresses) AdvertisedAddresses() []peer.Address {
	return append([]peer.Address(nil), s...)
}

// InterfaceAddresses announces one address per usable unicast address
// on the host's interfaces, all with the same protocol, port and
// handshake.
type InterfaceAddresses struct {
	Protocol  peer.Protocol
	Port      uint16
	Handshake peer.Handshake

	// interfaceAddrs is net.InterfaceAddrs, replaceable for testing.
	interfaceAddrs func() ([]net.Addr, error)
}

func (a *InterfaceAddresses) AdvertisedAddresses() []peer.Address {
	lister := a.interfaceAddrs
	if lister == nil {
		lister = net.InterfaceAddrs
	}
	ifaddrs, err := lister()
	if err != nil {
		slog.Warn("Failed to list interface addresses", slogutil.Error(err))
		return nil
	}

	var addrs []peer.Address
	for _, ifaddr := range ifaddrs {
		ipnet, ok := ifaddr.(*net.IPNet)
		if !ok {
			continue
		}
		ip, ok := netip.AddrFromSlice(ipnet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()
		if !usableLocally(ip) {
			continue
		}
		addrs = append(addrs, peer.NewAddress(a.Protocol, ip, a.Port, a.Handshake))
	}
	return addrs
}

// usableLocally reports whether ip is something another host on the local
// network could dial.
func usableLocally(ip netip.Addr) bool {
	switch {
	case !ip.IsValid(), ip.IsUnspecified(), ip.IsLoopback(), ip.IsMulticast():
		return false
	case ip.Is4() && ip.IsLinkLocalUnicast():
		// 169.254/16 autoconfiguration addresses are rarely what we want.
		return false
	default:
		return ip.IsGlobalUnicast() || ip.IsLinkLocalUnicast() || ip.IsPrivate()
	}
}
