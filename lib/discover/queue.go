// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"context"
	"sync"

	"github.com/cosmoline/cosmoline/lib/peer"
)

// peerQueue is an unbounded FIFO between the listener and the consumer
// channel. push never blocks.
type peerQueue struct {
	mut    sync.Mutex
	items  []peer.Peer
	signal chan struct{}
}

func newPeerQueue() *peerQueue {
	return &peerQueue{
		signal: make(chan struct{}, 1),
	}
}

func (q *peerQueue) push(p peer.Peer) {
	q.mut.Lock()
	q.items = append(q.items, p)
	q.mut.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *peerQueue) pop() (peer.Peer, bool) {
	q.mut.Lock()
	defer q.mut.Unlock()
	if len(q.items) == 0 {
		return peer.Peer{}, false
	}
	p := q.items[0]
	q.items[0] = peer.Peer{}
	q.items = q.items[1:]
	return p, true
}

func (q *peerQueue) Len() int {
	q.mut.Lock()
	defer q.mut.Unlock()
	return len(q.items)
}

// deliver moves queued peers to out, in order, until ctx is cancelled.
func (q *peerQueue) deliver(ctx context.Context, out chan<- peer.Peer) error {
	for {
		p, ok := q.pop()
		if !ok {
			select {
			case <-q.signal:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		select {
		case out <- p:
		case <-ctx.Done():
			// Put it back; a restarted deliverer continues from here.
			q.unpop(p)
			return ctx.Err()
		}
	}
}

func (q *peerQueue) unpop(p peer.Peer) {
	q.mut.Lock()
	q.items = append([]peer.Peer{p}, q.items...)
	q.mut.Unlock()
}
