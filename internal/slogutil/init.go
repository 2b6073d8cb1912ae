// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"io"
	"log/slog"
	"os"
)

// TraceEnv names the environment variable holding per-package level
// overrides, e.g. COSMOLINE_TRACE="discover,beacon:WARN".
const TraceEnv = "COSMOLINE_TRACE"

var (
	GlobalRecorder = &lineRecorder{level: -1000}
	ErrorRecorder  = &lineRecorder{level: slog.LevelWarn}
	globalLevels   = &levelTracker{
		levels: make(map[string]slog.Level),
		descrs: make(map[string]string),
	}
	globalFormatter = &formattingOptions{
		LineFormat: DefaultLineFormat,
		recs:       []*lineRecorder{GlobalRecorder, ErrorRecorder},
		out:        logWriter(),
	}
	slogDef = slog.New(&formattingHandler{opts: globalFormatter})
)

func logWriter() io.Writer {
	if os.Getenv("LOGGER_DISCARD") != "" {
		// Completely disables output, for example when running
		// benchmarks. Recorders still see every line.
		return nil
	}
	return os.Stdout
}

func init() {
	slog.SetDefault(slogDef)
	SetLevelOverrides(os.Getenv(TraceEnv))
}
