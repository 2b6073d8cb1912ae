// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package beacon

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"
)

func listenLoopback(t *testing.T) (*Reader, netip.AddrPort) {
	t.Helper()
	r, err := Listen(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	port := r.LocalAddr().(*net.UDPAddr).Port
	return r, netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(port))
}

func TestSendReceiveLoopback(t *testing.T) {
	r, dst := listenLoopback(t)

	w, err := NewWriter(context.Background(), []netip.AddrPort{dst})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if len(w.Targets()) != 1 || w.Targets()[0] != dst {
		t.Fatalf("unexpected targets %v", w.Targets())
	}
	if err := w.SendTo([]byte("hello"), dst); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			r.Close()
		}
	}()
	defer close(done)

	data, src, err := r.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("received %q", data)
	}
	if src == nil {
		t.Error("expected a source address")
	}
}

func TestRecvAfterClose(t *testing.T) {
	r, _ := listenLoopback(t)
	r.Close()

	_, _, err := r.Recv()
	var serr *SocketError
	if !errors.As(err, &serr) || serr.Op != "receive" {
		t.Fatalf("expected receive SocketError, got %v", err)
	}
	if !errors.Is(err, net.ErrClosed) {
		t.Errorf("expected error to wrap net.ErrClosed, got %v", err)
	}
}

func TestListenPortInUse(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	r, err := Listen(context.Background(), port)
	if err == nil {
		r.Close()
		t.Fatal("expected bind failure on a port held without address reuse")
	}
	var serr *SocketError
	if !errors.As(err, &serr) || serr.Op != "listen" {
		t.Errorf("expected listen SocketError, got %v", err)
	}
}

func TestDefaultTargets(t *testing.T) {
	targets := DefaultTargets(DefaultPort)
	expected := []string{"255.255.255.255:8008", "[ff02::1]:8008"}
	if len(targets) != len(expected) {
		t.Fatalf("unexpected targets %v", targets)
	}
	for i := range targets {
		if targets[i].String() != expected[i] {
			t.Errorf("target %d is %v, expected %v", i, targets[i], expected[i])
		}
	}
}

func TestSocketErrorString(t *testing.T) {
	err := &SocketError{Op: "send", Addr: "255.255.255.255:8008", Err: errors.New("network is unreachable")}
	if s := err.Error(); s != "beacon send 255.255.255.255:8008: network is unreachable" {
		t.Errorf("unexpected error string %q", s)
	}
	err = &SocketError{Op: "receive", Err: net.ErrClosed}
	if s := err.Error(); s != "beacon receive: "+net.ErrClosed.Error() {
		t.Errorf("unexpected error string %q", s)
	}
}
