// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package publish

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/cosmoline/cosmoline/lib/peer"
)

func TestPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := New(ctx, "tcp://127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	sub := zmq4.NewSub(ctx)
	defer sub.Close()
	if err := sub.Dial("tcp://" + pub.Addr().String()); err != nil {
		t.Fatal(err)
	}
	if err := sub.SetOption(zmq4.OptionSubscribe, Topic); err != nil {
		t.Fatal(err)
	}

	key, err := peer.ParsePublicKey("11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo=")
	if err != nil {
		t.Fatal(err)
	}
	p := peer.New([]peer.Address{
		peer.NewAddress(peer.ProtocolNet, netip.MustParseAddr("192.0.2.1"), 8023, peer.HandshakeShs),
	}, key)

	recv := make(chan zmq4.Msg, 1)
	go func() {
		msg, err := sub.Recv()
		if err != nil {
			return
		}
		recv <- msg
	}()

	// Subscriptions propagate asynchronously, so keep publishing until one
	// arrives.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(10 * time.Second)
	for {
		if err := pub.Publish(p); err != nil {
			t.Fatal(err)
		}
		select {
		case msg := <-recv:
			if len(msg.Frames) != 2 {
				t.Fatalf("got %d frames, expected 2", len(msg.Frames))
			}
			if string(msg.Frames[0]) != Topic {
				t.Errorf("got topic %q, expected %q", msg.Frames[0], Topic)
			}
			dec, err := peer.Decode(string(msg.Frames[1]))
			if err != nil {
				t.Fatal(err)
			}
			if !dec.Equal(p) {
				t.Errorf("got %v, expected %v", dec, p)
			}
			return
		case <-ticker.C:
		case <-timeout:
			t.Fatal("nothing received")
		}
	}
}

func TestListenFailure(t *testing.T) {
	if _, err := New(context.Background(), "bogus://nowhere"); err == nil {
		t.Error("expected an error for an invalid endpoint")
	}
}
