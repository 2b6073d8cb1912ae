// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build !unix && !windows

package beacon

import "syscall"

func listenControl(_, _ string, _ syscall.RawConn) error {
	return nil
}

func broadcastControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
