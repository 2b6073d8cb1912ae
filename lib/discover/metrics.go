// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package discover

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricAnnouncementsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "announcements_sent_total",
		Help:      "Total number of announcements sent, per target and result",
	}, []string{"target", "result"})
	metricPacketsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "packets_received_total",
		Help:      "Total number of datagrams received on the discovery port",
	})
	metricPacketsInvalid = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "packets_invalid_total",
		Help:      "Total number of received datagrams dropped as invalid, per reason",
	}, []string{"reason"})
	metricPacketsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "packets_duplicate_total",
		Help:      "Total number of received announcements of already known peers",
	})
	metricPeersDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "peers_discovered_total",
		Help:      "Total number of newly seen peers handed to the consumer",
	})
	metricReceiveErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cosmoline",
		Subsystem: "discover",
		Name:      "receive_errors_total",
		Help:      "Total number of failed receives on the discovery socket",
	})
)

const (
	metricResultSuccess = "success"
	metricResultFailure = "failure"

	metricReasonEncoding  = "encoding"
	metricReasonAddress   = "address"
	metricReasonKey       = "key"
	metricReasonMismatch  = "key_mismatch"
	metricReasonMalformed = "malformed"
)
