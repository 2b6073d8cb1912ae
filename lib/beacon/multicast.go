// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package beacon

import (
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"golang.org/x/net/ipv6"

	"github.com/cosmoline/cosmoline/internal/slogutil"
)

var errNoMulticastInterfaces = errors.New("no multicast interfaces available")

// multicastInterfaces returns the interfaces that are up and multicast
// capable.
func multicastInterfaces() ([]net.Interface, error) {
	intfs, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	res := intfs[:0]
	for _, intf := range intfs {
		if intf.Flags&net.FlagRunning == 0 || intf.Flags&net.FlagMulticast == 0 {
			continue
		}
		res = append(res, intf)
	}
	return res, nil
}

// joinAllNodes joins the all-nodes group on every multicast interface. The
// kernel normally has the group joined already, so failures are only
// logged.
func joinAllNodes(conn *net.UDPConn) {
	intfs, err := multicastInterfaces()
	if err != nil {
		slog.Debug("Listing interfaces for multicast join", slogutil.Error(err))
		return
	}
	pconn := ipv6.NewPacketConn(conn)
	group := &net.UDPAddr{IP: IPv6AllNodes.AsSlice()}
	for i := range intfs {
		if err := pconn.JoinGroup(&intfs[i], group); err != nil {
			slog.Debug("IPv6 multicast join failed", "interface", intfs[i].Name, slogutil.Error(err))
		} else {
			slog.Debug("IPv6 multicast join succeeded", "interface", intfs[i].Name)
		}
	}
}

func (w *Writer) sendMulticast(data []byte, dst netip.AddrPort) error {
	intfs, err := multicastInterfaces()
	if err != nil {
		return &SocketError{Op: "send", Addr: dst.String(), Err: err}
	}

	pconn := ipv6.NewPacketConn(w.conn)
	wcm := &ipv6.ControlMessage{
		HopLimit: 1,
	}
	gaddr := net.UDPAddrFromAddrPort(dst)

	success := 0
	lastErr := errNoMulticastInterfaces
	for _, intf := range intfs {
		wcm.IfIndex = intf.Index
		_ = pconn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_, err := pconn.WriteTo(data, wcm, gaddr)
		_ = pconn.SetWriteDeadline(time.Time{})
		if err != nil {
			slog.Debug("Multicast write failed", "target", dst.String(), "interface", intf.Name, slogutil.Error(err))
			lastErr = err
			continue
		}
		slog.Debug("Sent datagram", "bytes", len(data), "target", dst.String(), "interface", intf.Name)
		success++
	}

	if success == 0 {
		return &SocketError{Op: "send", Addr: dst.String(), Err: lastErr}
	}
	return nil
}
