// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cosmoline/cosmoline/lib/peer"
)

// seenSet remembers the peers already handed to the consumer. It is bounded
// by size and entries expire when a peer has not been seen for ttl. A zero
// size or ttl removes that bound.
type seenSet struct {
	mut     sync.Mutex
	ttl     time.Duration
	entries *expirable.LRU[string, time.Time]
}

func newSeenSet(size int, ttl time.Duration) *seenSet {
	return &seenSet{
		ttl: ttl,
		// Expiry is checked on lookup; a TTL here would start a reaper
		// goroutine that is never stopped.
		entries: expirable.NewLRU[string, time.Time](size, nil, 0),
	}
}

// addIfNew records a sighting of p and reports whether p was unknown or
// expired. The check and the insert happen under one lock.
func (s *seenSet) addIfNew(p peer.Peer) bool {
	key := p.Packet()
	now := time.Now()
	s.mut.Lock()
	defer s.mut.Unlock()
	last, known := s.entries.Peek(key)
	if known && s.ttl > 0 && now.Sub(last) > s.ttl {
		known = false
	}
	s.entries.Add(key, now)
	return !known
}

func (s *seenSet) Len() int {
	return s.entries.Len()
}
