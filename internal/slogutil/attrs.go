// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"log/slog"
	"net"
)

// Error returns an attribute for the given error, or an empty attribute
// (which the handler skips) when err is nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Address returns an attribute for a network address, tolerating nil.
func Address(addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String("address", "unknown")
	}
	return slog.String("address", addr.String())
}

// Expensive wraps a log value that is expensive to compute and should only
// be evaluated if the line is actually emitted.
func Expensive(fn func() any) slog.LogValuer {
	return expensive(fn)
}

type expensive func() any

func (e expensive) LogValue() slog.Value {
	return slog.AnyValue(e())
}
