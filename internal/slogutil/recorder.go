// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package slogutil

import (
	"log/slog"
	"sync"
	"time"
)

const maxLogLines = 1000

// A Recorder keeps a size limited record of log lines at or above its level.
type Recorder interface {
	Since(t time.Time) []Line
	Clear()
}

type lineRecorder struct {
	level slog.Level
	mut   sync.Mutex
	lines []Line
}

func (r *lineRecorder) record(line Line) {
	if line.Level < r.level {
		return
	}
	r.mut.Lock()
	r.lines = append(r.lines, line)
	if len(r.lines) > maxLogLines {
		r.lines = r.lines[len(r.lines)-maxLogLines:]
	}
	r.mut.Unlock()
}

func (r *lineRecorder) Clear() {
	r.mut.Lock()
	r.lines = nil
	r.mut.Unlock()
}

// Since returns a copy of the lines recorded strictly after t.
func (r *lineRecorder) Since(t time.Time) []Line {
	r.mut.Lock()
	defer r.mut.Unlock()
	for i := range r.lines {
		if r.lines[i].When.After(t) {
			res := make([]Line, len(r.lines)-i)
			copy(res, r.lines[i:])
			return res
		}
	}
	return nil
}
