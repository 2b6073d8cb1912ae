// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package publish forwards discovered peers to other processes over a
// ZeroMQ PUB socket. Each message has two frames: the topic and the peer's
// discovery packet.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cosmoline/cosmoline/internal/slogutil"
	"github.com/cosmoline/cosmoline/lib/peer"
)

// Topic is the first frame of every published message.
const Topic = "peer"

func init() {
	slogutil.RegisterPackage("Forwarding of discovered peers over ZeroMQ")
}

var metricPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "cosmoline",
	Subsystem: "publish",
	Name:      "messages_total",
	Help:      "Number of discovered peers published, by result",
}, []string{"result"})

type Publisher struct {
	mut  sync.Mutex
	sock zmq4.Socket
}

// New binds a PUB socket on endpoint, for example "tcp://127.0.0.1:5555".
// The socket is closed when ctx is cancelled or Close is called.
func New(ctx context.Context, endpoint string) (*Publisher, error) {
	sock := zmq4.NewPub(ctx)
	if err := sock.Listen(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("publish: listen %s: %w", endpoint, err)
	}
	slog.Info("Publishing discovered peers", "endpoint", endpoint)
	return &Publisher{sock: sock}, nil
}

// Publish sends d to all current subscribers. Subscribers that connect
// later do not see it.
func (p *Publisher) Publish(d peer.Peer) error {
	msg := zmq4.NewMsgFrom([]byte(Topic), []byte(d.Packet()))
	p.mut.Lock()
	err := p.sock.Send(msg)
	p.mut.Unlock()
	if err != nil {
		metricPublished.WithLabelValues("failure").Inc()
		return fmt.Errorf("publish: %w", err)
	}
	metricPublished.WithLabelValues("success").Inc()
	slog.Debug("Published peer", "key", d.Key.String())
	return nil
}

// Addr is the address the socket listens on.
func (p *Publisher) Addr() net.Addr {
	return p.sock.Addr()
}

func (p *Publisher) Close() error {
	return p.sock.Close()
}
