// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package osutil contains file system helpers.
package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

var (
	ErrClosed  = errors.New("write to closed writer")
	TempPrefix = ".cosmoline.tmp."
)

// An AtomicWriter writes to a temporary file in the same directory as the
// final path and renames it into place on a successful Close. Errors from
// Write are remembered and returned again from Close.
type AtomicWriter struct {
	path string
	next *os.File
	err  error
}

// CreateAtomic is like os.Create, except that the data only appears at path
// once Close succeeds. The file is created with 0600 permissions.
func CreateAtomic(path string) (*AtomicWriter, error) {
	// os.CreateTemp creates the file with mode 0600.
	fd, err := os.CreateTemp(filepath.Dir(path), TempPrefix)
	if err != nil {
		return nil, err
	}
	return &AtomicWriter{
		path: path,
		next: fd,
	}, nil
}

// Write is like io.Writer, but is a no-op on an already failed AtomicWriter.
func (w *AtomicWriter) Write(bs []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.next.Write(bs)
	if err != nil {
		w.err = err
		w.next.Close()
	}
	return n, err
}

// Close syncs the temporary file and renames it to the final path. Calling
// Write or Close again afterwards returns ErrClosed.
func (w *AtomicWriter) Close() error {
	if w.err != nil {
		os.Remove(w.next.Name())
		return w.err
	}
	defer os.Remove(w.next.Name())

	_ = w.next.Sync()
	if err := w.next.Close(); err != nil {
		w.err = err
		return err
	}

	err := os.Rename(w.next.Name(), w.path)
	if runtime.GOOS == "windows" && errors.Is(err, os.ErrPermission) {
		// Windows refuses to rename over a read-only file.
		_ = os.Chmod(w.path, 0o600)
		err = os.Rename(w.next.Name(), w.path)
	}
	if err != nil {
		w.err = err
		return err
	}

	if fd, err := os.Open(filepath.Dir(w.path)); err == nil {
		_ = fd.Sync()
		fd.Close()
	}

	w.err = ErrClosed
	return nil
}
