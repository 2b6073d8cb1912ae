// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package automaxprocs sets GOMAXPROCS from the container CPU quota when
// imported.
package automaxprocs

import (
	"fmt"
	"log/slog"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/cosmoline/cosmoline/internal/slogutil"
)

func init() {
	slogutil.RegisterPackage("GOMAXPROCS adjustment")
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
}
