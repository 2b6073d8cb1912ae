// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package locations

import (
	"path/filepath"
	"testing"
)

func TestExpandTilde(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	t.Setenv("USERPROFILE", `C:\Users\alice`)
	home, err := userHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]string{
		"~":              home,
		"~/.cosmoline":   filepath.Join(home, ".cosmoline"),
		"/etc/cosmoline": filepath.FromSlash("/etc/cosmoline"),
		"rel/dir":        filepath.FromSlash("rel/dir"),
		"~other/dir":     filepath.FromSlash("~other/dir"),
	}
	for in, exp := range cases {
		res, err := ExpandTilde(in)
		if err != nil {
			t.Errorf("%q: %v", in, err)
			continue
		}
		if res != exp {
			t.Errorf("%q: got %q, expected %q", in, res, exp)
		}
	}
}

func TestSetHome(t *testing.T) {
	defer SetHome(DefaultHome)

	dir := t.TempDir()
	SetHome(dir)
	if Home() != filepath.Clean(dir) {
		t.Errorf("got home %q, expected %q", Home(), dir)
	}
	if exp := filepath.Join(dir, "secret"); Get(SecretFile) != exp {
		t.Errorf("got secret %q, expected %q", Get(SecretFile), exp)
	}
}

func TestDefaultHome(t *testing.T) {
	if rel := GetRelative(SecretFile); rel != filepath.Clean("~/.cosmoline/secret") {
		t.Errorf("unexpected default secret location %q", rel)
	}
}
