// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build unix

package beacon

import (
	"syscall"

	"golang.org/x/sys/unix"
)

func listenControl(_, _ string, c syscall.RawConn) error {
	return setSockopt(c, unix.SO_REUSEADDR)
}

func broadcastControl(_, _ string, c syscall.RawConn) error {
	return setSockopt(c, unix.SO_BROADCAST)
}

func setSockopt(c syscall.RawConn, opt int) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, opt, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
