// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build windows

package beacon

import (
	"syscall"

	"golang.org/x/sys/windows"
)

func listenControl(_, _ string, c syscall.RawConn) error {
	return setSockopt(c, windows.SO_REUSEADDR)
}

func broadcastControl(_, _ string, c syscall.RawConn) error {
	return setSockopt(c, windows.SO_BROADCAST)
}

func setSockopt(c syscall.RawConn, opt int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, opt, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
