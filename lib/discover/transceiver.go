// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/thejerf/suture/v4"
	"golang.org/x/time/rate"

	"github.com/cosmoline/cosmoline/internal/slogutil"
	"github.com/cosmoline/cosmoline/lib/beacon"
	"github.com/cosmoline/cosmoline/lib/peer"
	"github.com/cosmoline/cosmoline/lib/svcutil"
)

const (
	DefaultInterval  = time.Second
	DefaultSeenLimit = 4096
	DefaultSeenTTL   = 10 * time.Minute

	warningInterval       = time.Minute
	warningLimiterEntries = 256
	receiveErrorPause     = 100 * time.Millisecond
)

func init() {
	slogutil.RegisterPackage("Local discovery announcements and peer detection")
}

var errNotUTF8 = errors.New("packet is not valid UTF-8")

// An Identity provides the public key announced by this node. The key must
// not change while a Transceiver is using it.
type Identity interface {
	PublicKey() peer.PublicKey
}

type Options struct {
	// Port is the well-known discovery port listened on. Zero means
	// beacon.DefaultPort.
	Port int
	// Interval between announcements. Zero means DefaultInterval.
	Interval time.Duration
	// Targets announcements are sent to. Empty means the IPv4 broadcast
	// and IPv6 all-nodes addresses on Port.
	Targets []netip.AddrPort
	// SeenLimit bounds the number of remembered peers; negative means no
	// bound. Zero means DefaultSeenLimit.
	SeenLimit int
	// SeenTTL is how long a remembered peer lasts without being seen
	// again; negative means forever. Zero means DefaultSeenTTL.
	SeenTTL time.Duration
}

func (o Options) withDefaults() Options {
	if o.Port == 0 {
		o.Port = beacon.DefaultPort
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if len(o.Targets) == 0 {
		o.Targets = beacon.DefaultTargets(o.Port)
	}
	switch {
	case o.SeenLimit == 0:
		o.SeenLimit = DefaultSeenLimit
	case o.SeenLimit < 0:
		o.SeenLimit = 0
	}
	switch {
	case o.SeenTTL == 0:
		o.SeenTTL = DefaultSeenTTL
	case o.SeenTTL < 0:
		o.SeenTTL = 0
	}
	return o
}

// receiver is the listening half of the socket pair.
type receiver interface {
	Recv() ([]byte, net.Addr, error)
}

// sender is the sending half of the socket pair.
type sender interface {
	Targets() []netip.AddrPort
	SendTo(data []byte, dst netip.AddrPort) error
}

// A Transceiver announces this node on the local network and reports other
// nodes announcing themselves. It is a suture.Service; Serve must not be
// called concurrently.
type Transceiver struct {
	id    Identity
	addrs AddressLister
	opts  Options

	seen     *seenSet
	queue    *peerQueue
	out      chan peer.Peer
	limiters *lru.Cache[string, *rate.Limiter]
}

func New(id Identity, addrs AddressLister, opts Options) *Transceiver {
	opts = opts.withDefaults()
	// lru.New only fails for a non-positive size.
	limiters, _ := lru.New[string, *rate.Limiter](warningLimiterEntries)
	return &Transceiver{
		id:       id,
		addrs:    addrs,
		opts:     opts,
		seen:     newSeenSet(opts.SeenLimit, opts.SeenTTL),
		queue:    newPeerQueue(),
		out:      make(chan peer.Peer),
		limiters: limiters,
	}
}

// Peers returns the channel on which newly seen peers are delivered, in the
// order they were first seen. Peers queue up while nobody is reading.
func (t *Transceiver) Peers() <-chan peer.Peer {
	return t.out
}

// Serve binds the discovery sockets and runs the announcer, the listener
// and the delivery to Peers until ctx is cancelled. Failing to bind either
// socket is fatal. Both sockets are closed when Serve returns.
func (t *Transceiver) Serve(ctx context.Context) error {
	r, err := beacon.Listen(ctx, t.opts.Port)
	if err != nil {
		slog.Warn("Local discovery unavailable", slogutil.Error(err))
		return svcutil.AsFatalErr(err, svcutil.ExitError)
	}
	w, err := beacon.NewWriter(ctx, t.opts.Targets)
	if err != nil {
		r.Close()
		slog.Warn("Local discovery unavailable", slogutil.Error(err))
		return svcutil.AsFatalErr(err, svcutil.ExitError)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	closed := make(chan struct{})
	go func() {
		// Closing the sockets is what unblocks a pending receive.
		<-ctx.Done()
		r.Close()
		w.Close()
		close(closed)
	}()

	slog.Info("Local discovery started", "listen", r.LocalAddr().String(), "announce", w.LocalAddr().String(), "interval", t.opts.Interval)

	sup := suture.New("discover.Transceiver", svcutil.SpecWithDebugLogger(slog.Default()))
	sup.Add(svcutil.AsService(func(ctx context.Context) error {
		return t.advertise(ctx, w)
	}, "discover.Transceiver/advertise"))
	sup.Add(svcutil.AsService(func(ctx context.Context) error {
		return t.listen(ctx, r)
	}, "discover.Transceiver/listen"))
	sup.Add(svcutil.AsService(func(ctx context.Context) error {
		return t.queue.deliver(ctx, t.out)
	}, "discover.Transceiver/deliver"))

	err = sup.Serve(ctx)
	cancel()
	<-closed
	return err
}

func (t *Transceiver) String() string {
	return "discover.Transceiver@" + t.opts.Targets[0].String()
}

func (t *Transceiver) advertise(ctx context.Context, w sender) error {
	ticker := time.NewTicker(t.opts.Interval)
	defer ticker.Stop()
	for {
		t.announce(w)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// announcement returns this node's descriptor, built afresh so that address
// changes are picked up.
func (t *Transceiver) announcement() (peer.Peer, bool) {
	addrs := t.addrs.AdvertisedAddresses()
	if len(addrs) == 0 {
		return peer.Peer{}, false
	}
	return peer.New(addrs, t.id.PublicKey()), true
}

func (t *Transceiver) announce(w sender) {
	self, ok := t.announcement()
	if !ok {
		slog.Debug("No addresses to announce")
		return
	}
	pkt := []byte(self.Packet())
	for _, dst := range w.Targets() {
		if err := w.SendTo(pkt, dst); err != nil {
			metricAnnouncementsSent.WithLabelValues(dst.String(), metricResultFailure).Inc()
			if t.allowWarning("send " + dst.String()) {
				slog.Warn("Failed to send announcement", "target", dst.String(), slogutil.Error(err))
			}
			continue
		}
		metricAnnouncementsSent.WithLabelValues(dst.String(), metricResultSuccess).Inc()
	}
}

func (t *Transceiver) listen(ctx context.Context, r receiver) error {
	for {
		data, src, err := r.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				// Restarting cannot bring a closed socket back.
				return svcutil.NoRestartErr(err)
			}
			metricReceiveErrors.Inc()
			if t.allowWarning("receive") {
				slog.Warn("Failed to receive discovery packet", slogutil.Error(err))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(receiveErrorPause):
			}
			continue
		}
		t.handle(src, data)
	}
}

// handle processes one received datagram and reports whether it described
// a new peer.
func (t *Transceiver) handle(src net.Addr, data []byte) bool {
	metricPacketsReceived.Inc()
	slog.Debug("Read announcement", slogutil.Address(src), "packet", slogutil.Expensive(func() any { return hex.Dump(data) }))

	if !utf8.Valid(data) {
		t.dropInvalid(src, metricReasonEncoding, errNotUTF8)
		return false
	}
	p, err := peer.Decode(string(data))
	if err != nil {
		t.dropInvalid(src, invalidReason(err), err)
		return false
	}
	if p.Key == t.id.PublicKey() {
		slog.Debug("Ignoring own announcement", slogutil.Address(src))
		return false
	}
	if !t.seen.addIfNew(p) {
		metricPacketsDuplicate.Inc()
		return false
	}

	metricPeersDiscovered.Inc()
	slog.Info("Discovered peer", "key", p.Key.String(), "addresses", len(p.Addresses), slogutil.Address(src))
	t.queue.push(p)
	return true
}

func (t *Transceiver) dropInvalid(src net.Addr, reason string, err error) {
	metricPacketsInvalid.WithLabelValues(reason).Inc()
	if t.allowWarning("invalid " + sourceHost(src)) {
		slog.Info("Dropping invalid discovery packet", slogutil.Address(src), slogutil.Error(err))
	}
}

// allowWarning rate limits repeated warnings with the same key.
func (t *Transceiver) allowWarning(key string) bool {
	lim, ok := t.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(rate.Every(warningInterval), 1)
		t.limiters.Add(key, lim)
	}
	return lim.Allow()
}

func sourceHost(src net.Addr) string {
	if ua, ok := src.(*net.UDPAddr); ok {
		return ua.IP.String()
	}
	if src == nil {
		return ""
	}
	return src.String()
}

func invalidReason(err error) string {
	switch {
	case errors.Is(err, peer.ErrKeyMismatch):
		return metricReasonMismatch
	case errors.Is(err, peer.ErrInvalidKeyEncoding):
		return metricReasonKey
	case errors.Is(err, peer.ErrMalformedAddress):
		return metricReasonAddress
	default:
		return metricReasonMalformed
	}
}
