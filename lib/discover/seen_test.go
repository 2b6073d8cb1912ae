// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"runtime"
	"testing"
	"time"

	"github.com/cosmoline/cosmoline/lib/peer"
)

func TestSeenSetNewAndDuplicate(t *testing.T) {
	s := newSeenSet(0, 0)

	a := testPeer(t, keyTwo, "192.0.2.1")
	if !s.addIfNew(a) {
		t.Fatal("first sighting should be new")
	}
	if s.addIfNew(a) {
		t.Fatal("second sighting should not be new")
	}
	if s.addIfNew(testPeer(t, keyTwo, "192.0.2.1")) {
		t.Fatal("equal descriptor should not be new")
	}
	if !s.addIfNew(testPeer(t, keyThree, "192.0.2.1")) {
		t.Fatal("different key should be new")
	}
	if !s.addIfNew(testPeer(t, keyTwo, "192.0.2.1", "192.0.2.2")) {
		t.Fatal("different address list should be new")
	}
	if s.Len() != 3 {
		t.Errorf("got %d entries, expected 3", s.Len())
	}
}

func TestSeenSetSizeBound(t *testing.T) {
	s := newSeenSet(2, 0)

	a := testPeer(t, keyTwo, "192.0.2.1")
	b := testPeer(t, keyTwo, "192.0.2.2")
	c := testPeer(t, keyTwo, "192.0.2.3")
	for _, p := range []peer.Peer{a, b, c} {
		if !s.addIfNew(p) {
			t.Fatalf("%v should be new", p)
		}
	}
	if s.Len() != 2 {
		t.Fatalf("got %d entries, expected 2", s.Len())
	}
	if !s.addIfNew(a) {
		t.Error("oldest entry should have been evicted")
	}
	if s.addIfNew(c) {
		t.Error("newest entry should still be known")
	}
}

func TestSeenSetExpiry(t *testing.T) {
	const ttl = 300 * time.Millisecond
	s := newSeenSet(0, ttl)

	a := testPeer(t, keyTwo, "192.0.2.1")
	if !s.addIfNew(a) {
		t.Fatal("first sighting should be new")
	}

	// Seeing the peer again refreshes the entry.
	time.Sleep(ttl * 2 / 3)
	if s.addIfNew(a) {
		t.Fatal("should still be known before expiry")
	}
	time.Sleep(ttl * 2 / 3)
	if s.addIfNew(a) {
		t.Fatal("should still be known after refresh")
	}

	time.Sleep(ttl * 2)
	if !s.addIfNew(a) {
		t.Error("should be new again after expiry")
	}
}

func TestSeenSetStartsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	sets := make([]*seenSet, 50)
	for i := range sets {
		sets[i] = newSeenSet(10, time.Minute)
	}
	if after := runtime.NumGoroutine(); after-before >= len(sets) {
		t.Errorf("%d goroutines before, %d after creating %d seen sets", before, after, len(sets))
	}
	runtime.KeepAlive(sets)
}
