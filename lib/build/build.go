// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package build holds version information injected at link time.
package build

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

const devVersion = "unknown-dev"

var (
	// Injected by the linker, e.g.
	// -X github.com/cosmoline/cosmoline/lib/build.Version=v1.2.3
	Version = devVersion
	Host    = "unknown"
	User    = "unknown"
	Stamp   = "0"

	// Set by init()
	Date        time.Time
	IsRelease   bool
	IsBeta      bool
	LongVersion string

	AllowedVersionExp = regexp.MustCompile(`^v\d+\.\d+\.\d+(-[a-z0-9]+)*(\.\d+)*(\+\d+-g[0-9a-f]+)?(-[^\s]+)?$`)
	releaseExp        = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)
)

func init() {
	setBuildData()
}

func setBuildData() {
	if Version == devVersion {
		if rev := vcsRevision(); rev != "" {
			Version = devVersion + "+" + rev
		}
	}

	IsRelease = releaseExp.MatchString(Version)
	IsBeta = !IsRelease && strings.HasPrefix(Version, "v")

	stamp, _ := strconv.ParseInt(Stamp, 10, 64)
	Date = time.Unix(stamp, 0)

	date := Date.UTC().Format("2006-01-02 15:04:05 MST")
	LongVersion = fmt.Sprintf(`cosmoline %s (%s %s-%s) %s@%s %s`, Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, User, Host, date)
}

// vcsRevision returns the short commit hash the binary was built from, if
// the toolchain recorded one.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// ValidVersion reports whether v looks like something git describe would
// produce for a tagged build.
func ValidVersion(v string) bool {
	return AllowedVersionExp.MatchString(v)
}
