// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package locations resolves the files kept in the node's home directory.
package locations

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type LocationEnum string

const (
	SecretFile LocationEnum = "secret"
)

// DefaultHome is used unless SetHome is called.
const DefaultHome = "~/.cosmoline"

var locationTemplates = map[LocationEnum]string{
	SecretFile: "${home}/secret",
}

var (
	mut       sync.RWMutex
	home      = DefaultHome
	locations = expandLocations(DefaultHome)
)

// SetHome changes the home directory all locations are relative to.
func SetHome(path string) {
	mut.Lock()
	defer mut.Unlock()
	home = filepath.Clean(path)
	locations = expandLocations(home)
}

// Home returns the configured home directory, with any leading tilde
// expanded.
func Home() string {
	mut.RLock()
	h := home
	mut.RUnlock()
	if full, err := ExpandTilde(h); err == nil {
		return full
	}
	return h
}

// GetRelative returns the location without tilde expansion.
func GetRelative(location LocationEnum) string {
	mut.RLock()
	defer mut.RUnlock()
	return locations[location]
}

// Get returns the full path of the location.
func Get(location LocationEnum) string {
	rel := GetRelative(location)
	full, err := ExpandTilde(rel)
	if err != nil {
		return rel
	}
	return full
}

func expandLocations(home string) map[LocationEnum]string {
	res := make(map[LocationEnum]string, len(locationTemplates))
	for key, tpl := range locationTemplates {
		res[key] = filepath.Clean(strings.ReplaceAll(tpl, "${home}", home))
	}
	return res
}

var errNoHome = errors.New("no home directory found - set $HOME (or the platform equivalent)")

// ExpandTilde replaces a leading "~" with the user's home directory.
func ExpandTilde(path string) (string, error) {
	if path == "~" {
		return userHomeDir()
	}
	path = filepath.FromSlash(path)
	if !strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return path, nil
	}
	h, err := userHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(h, path[2:]), nil
}

func userHomeDir() (string, error) {
	h, err := os.UserHomeDir()
	if err != nil || h == "" {
		return "", errNoHome
	}
	return h, nil
}
