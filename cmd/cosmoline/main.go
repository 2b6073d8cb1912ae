// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command cosmoline announces this node on the local network and prints the
// discovery packet of every other node it hears from.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"

	"github.com/cosmoline/cosmoline/internal/slogutil"
	_ "github.com/cosmoline/cosmoline/lib/automaxprocs"
	"github.com/cosmoline/cosmoline/lib/beacon"
	"github.com/cosmoline/cosmoline/lib/build"
	"github.com/cosmoline/cosmoline/lib/discover"
	"github.com/cosmoline/cosmoline/lib/identity"
	"github.com/cosmoline/cosmoline/lib/locations"
	"github.com/cosmoline/cosmoline/lib/peer"
	"github.com/cosmoline/cosmoline/lib/publish"
	"github.com/cosmoline/cosmoline/lib/svcutil"
)

var _ discover.Identity = (*identity.Keypair)(nil)

type CLI struct {
	Home          string           `help:"Directory holding the secret file" default:"${defaultHome}" env:"COSMOLINE_HOME" placeholder:"PATH"`
	DiscoveryPort int              `help:"UDP port for local discovery" default:"${defaultPort}" env:"COSMOLINE_DISCOVERY_PORT"`
	Interval      time.Duration    `help:"Time between announcements" default:"1s" env:"COSMOLINE_INTERVAL"`
	Advertise     []string         `help:"Addresses to announce, as protocol:host:port~handshake (default every local interface address)" env:"COSMOLINE_ADVERTISE" placeholder:"ADDR"`
	AdvertisePort uint16           `help:"Port announced for interface addresses" default:"8023" env:"COSMOLINE_ADVERTISE_PORT"`
	SeenLimit     int              `help:"Maximum number of remembered peers, negative for no limit" default:"4096" env:"COSMOLINE_SEEN_LIMIT"`
	SeenTTL       time.Duration    `help:"Forget peers not heard from for this long, negative for never" default:"10m" env:"COSMOLINE_SEEN_TTL"`
	MetricsListen string           `help:"Address to serve Prometheus metrics on" env:"COSMOLINE_METRICS_LISTEN" placeholder:"ADDR"`
	Publish       string           `help:"ZeroMQ endpoint to publish discovered peers on" env:"COSMOLINE_PUBLISH" placeholder:"tcp://HOST:PORT"`
	LogLevels     string           `help:"Log levels per package, e.g. discover:DEBUG,beacon:WARN" env:"COSMOLINE_LOG_LEVELS" placeholder:"PKG:LEVEL,..."`
	Version       kong.VersionFlag `help:"Show version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("cosmoline"),
		kong.Description("Local network peer discovery."),
		kong.Vars{
			"defaultHome": locations.DefaultHome,
			"defaultPort": fmt.Sprint(beacon.DefaultPort),
			"version":     build.LongVersion,
		},
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cli.Run(ctx, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Exiting", slogutil.Error(err))
	}
	os.Exit(svcutil.ExitStatusFor(err).AsInt())
}

// Run starts the node and blocks until ctx is cancelled or a fatal error
// occurs. Discovered peers are printed to out.
func (c *CLI) Run(ctx context.Context, out io.Writer) error {
	slogutil.SetLevelOverrides(c.LogLevels)
	slog.Info("Starting cosmoline", "version", build.Version)

	addrs, err := c.addressLister()
	if err != nil {
		return svcutil.AsFatalErr(err, svcutil.ExitUsage)
	}

	locations.SetHome(c.Home)
	id, err := identity.LoadOrCreate(locations.Get(locations.SecretFile))
	if err != nil {
		return svcutil.AsFatalErr(fmt.Errorf("loading identity: %w", err), svcutil.ExitError)
	}
	slog.Info("Loaded identity", "id", id.ID())

	var pub *publish.Publisher
	if c.Publish != "" {
		pub, err = publish.New(ctx, c.Publish)
		if err != nil {
			return svcutil.AsFatalErr(err, svcutil.ExitError)
		}
		defer pub.Close()
	}

	tr := discover.New(id, addrs, discover.Options{
		Port:      c.DiscoveryPort,
		Interval:  c.Interval,
		SeenLimit: c.SeenLimit,
		SeenTTL:   c.SeenTTL,
	})

	sup := suture.New("main", svcutil.SpecWithInfoLogger(slog.Default()))
	discoverSvc := svcutil.AsService(tr.Serve, "main/discover")
	sup.Add(discoverSvc)
	sup.Add(svcutil.AsService(func(ctx context.Context) error {
		return consume(ctx, tr.Peers(), out, pub)
	}, "main/consume"))
	if c.MetricsListen != "" {
		sup.Add(svcutil.AsService(func(ctx context.Context) error {
			return serveMetrics(ctx, c.MetricsListen)
		}, "main/metrics"))
	}

	err = sup.Serve(ctx)
	// A fatal service error carries the exit status.
	if svcErr := discoverSvc.Error(); svcErr != nil && ctx.Err() == nil {
		return svcErr
	}
	return err
}

func (c *CLI) addressLister() (discover.AddressLister, error) {
	if len(c.Advertise) == 0 {
		return &discover.InterfaceAddresses{
			Protocol:  peer.ProtocolNet,
			Port:      c.AdvertisePort,
			Handshake: peer.HandshakeShs,
		}, nil
	}
	addrs := make(discover.StaticAddresses, 0, len(c.Advertise))
	for _, s := range c.Advertise {
		addr, err := peer.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("advertise %q: %w", s, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// consume prints every discovered peer's packet to out and forwards it to
// the publisher, if any.
func consume(ctx context.Context, peers <-chan peer.Peer, out io.Writer, pub *publish.Publisher) error {
	for {
		select {
		case p := <-peers:
			fmt.Fprintln(out, p.Packet())
			if pub != nil {
				if err := pub.Publish(p); err != nil {
					slog.Warn("Failed to publish peer", "key", p.Key.String(), slogutil.Error(err))
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	slog.Info("Serving metrics", "address", addr)
	err := srv.ListenAndServe()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
