// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cosmoline/cosmoline/lib/discover"
	"github.com/cosmoline/cosmoline/lib/peer"
	"github.com/cosmoline/cosmoline/lib/svcutil"
)

func TestAddressLister(t *testing.T) {
	c := &CLI{AdvertisePort: 8023}
	l, err := c.addressLister()
	if err != nil {
		t.Fatal(err)
	}
	if ia, ok := l.(*discover.InterfaceAddresses); !ok || ia.Port != 8023 {
		t.Errorf("expected interface addresses on port 8023, got %#v", l)
	}

	c.Advertise = []string{"net:192.0.2.1:8023~shs", "ws:2001:db8::1:80~shs2"}
	l, err = c.addressLister()
	if err != nil {
		t.Fatal(err)
	}
	addrs := l.AdvertisedAddresses()
	if len(addrs) != 2 || addrs[1].String() != "ws:2001:db8::1:80~shs2" {
		t.Errorf("unexpected addresses %v", addrs)
	}

	c.Advertise = []string{"carrier-pigeon:192.0.2.1:8023~shs"}
	if _, err := c.addressLister(); !errors.Is(err, peer.ErrUnknownProtocol) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRunRejectsBadAdvertise(t *testing.T) {
	c := &CLI{Home: t.TempDir(), Advertise: []string{"nonsense"}}
	err := c.Run(context.Background(), &bytes.Buffer{})
	if svcutil.ExitStatusFor(err) != svcutil.ExitUsage {
		t.Errorf("expected usage exit status, got %v (%v)", svcutil.ExitStatusFor(err), err)
	}
}

type syncBuffer struct {
	mut sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mut.Lock()
	defer b.mut.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mut.Lock()
	defer b.mut.Unlock()
	return b.buf.String()
}

func TestConsumePrintsPackets(t *testing.T) {
	key, err := peer.ParsePublicKey("11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo=")
	if err != nil {
		t.Fatal(err)
	}
	p := peer.New([]peer.Address{
		peer.NewAddress(peer.ProtocolNet, netip.MustParseAddr("1.2.3.4"), 8023, peer.HandshakeShs),
	}, key)

	ctx, cancel := context.WithCancel(context.Background())
	peers := make(chan peer.Peer)
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- consume(ctx, peers, out, nil) }()

	peers <- p
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected error %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consume did not return")
	}

	exp := "net:1.2.3.4:8023~shs:11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo=\n"
	if got := out.String(); !strings.HasSuffix(got, exp) {
		t.Errorf("got %q, expected %q", got, exp)
	}
}
