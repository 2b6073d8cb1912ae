// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package beacon owns the UDP sockets used for local discovery: a Reader
// bound to the well-known discovery port, receiving both IPv4 broadcasts
// and IPv6 link-local multicasts, and a Writer bound to an ephemeral port,
// sending to a fixed set of broadcast and multicast targets.
package beacon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/cosmoline/cosmoline/internal/slogutil"
)

const (
	DefaultPort = 8008

	maxPacketSize = 65536
	writeTimeout  = time.Second
)

func init() {
	slogutil.RegisterPackage("Broadcast and multicast discovery sockets")
}

// IPv4Broadcast is the limited broadcast address.
var IPv4Broadcast = netip.AddrFrom4([4]byte{255, 255, 255, 255})

// IPv6AllNodes is the link-local all-nodes multicast group, ff02::1.
var IPv6AllNodes = netip.MustParseAddr("ff02::1")

// DefaultTargets returns the IPv4 broadcast and IPv6 all-nodes multicast
// destinations for the given port.
func DefaultTargets(port int) []netip.AddrPort {
	return []netip.AddrPort{
		netip.AddrPortFrom(IPv4Broadcast, uint16(port)),
		netip.AddrPortFrom(IPv6AllNodes, uint16(port)),
	}
}

// A SocketError is a failure at the transport layer.
type SocketError struct {
	Op   string
	Addr string
	Err  error
}

func (e *SocketError) Error() string {
	if e.Addr == "" {
		return "beacon " + e.Op + ": " + e.Err.Error()
	}
	return "beacon " + e.Op + " " + e.Addr + ": " + e.Err.Error()
}

func (e *SocketError) Unwrap() error {
	return e.Err
}

// A Reader receives discovery datagrams on the well-known port.
type Reader struct {
	conn *net.UDPConn
	buf  []byte
}

// Listen binds the discovery port on all interfaces, dual stack where
// available. Other processes on the same host may bind the port as well.
func Listen(ctx context.Context, port int) (*Reader, error) {
	lc := net.ListenConfig{Control: listenControl}
	pc, err := lc.ListenPacket(ctx, "udp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, &SocketError{Op: "listen", Addr: strconv.Itoa(port), Err: err}
	}
	conn := pc.(*net.UDPConn)
	joinAllNodes(conn)
	slog.Debug("Listening for discovery packets", slogutil.Address(conn.LocalAddr()))
	return &Reader{
		conn: conn,
		buf:  make([]byte, maxPacketSize),
	}, nil
}

// Recv blocks until a datagram arrives or the reader is closed. The
// returned slice is owned by the caller. Recv must not be called
// concurrently.
func (r *Reader) Recv() ([]byte, net.Addr, error) {
	n, addr, err := r.conn.ReadFrom(r.buf)
	if err != nil {
		return nil, addr, &SocketError{Op: "receive", Err: err}
	}
	slog.Debug("Received datagram", "bytes", n, slogutil.Address(addr))
	c := make([]byte, n)
	copy(c, r.buf[:n])
	return c, addr, nil
}

func (r *Reader) LocalAddr() net.Addr {
	return r.conn.LocalAddr()
}

func (r *Reader) Close() error {
	return r.conn.Close()
}

// A Writer sends discovery datagrams from an ephemeral port.
type Writer struct {
	conn    *net.UDPConn
	targets []netip.AddrPort
}

// NewWriter binds an ephemeral broadcast-capable socket that sends to the
// given targets.
func NewWriter(ctx context.Context, targets []netip.AddrPort) (*Writer, error) {
	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(ctx, "udp", ":0")
	if err != nil {
		return nil, &SocketError{Op: "listen", Addr: ":0", Err: err}
	}
	return &Writer{
		conn:    pc.(*net.UDPConn),
		targets: append([]netip.AddrPort(nil), targets...),
	}, nil
}

func (w *Writer) Targets() []netip.AddrPort {
	return w.targets
}

// SendTo writes data to one target. IPv6 multicast targets are written once
// per usable interface and succeed if any interface accepted the write.
func (w *Writer) SendTo(data []byte, dst netip.AddrPort) error {
	if dst.Addr().Is6() && dst.Addr().IsMulticast() {
		return w.sendMulticast(data, dst)
	}

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := w.conn.WriteToUDP(data, net.UDPAddrFromAddrPort(dst))
	_ = w.conn.SetWriteDeadline(time.Time{})
	if err != nil {
		return &SocketError{Op: "send", Addr: dst.String(), Err: err}
	}
	slog.Debug("Sent datagram", "bytes", len(data), "target", dst.String())
	return nil
}

func (w *Writer) LocalAddr() net.Addr {
	return w.conn.LocalAddr()
}

func (w *Writer) Close() error {
	return w.conn.Close()
}

func (w *Writer) String() string {
	return fmt.Sprintf("beacon.Writer@%v", w.conn.LocalAddr())
}
