// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package svcutil

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/thejerf/suture/v4"
)

func TestFatalErr(t *testing.T) {
	base := errors.New("bind failed")
	ferr := AsFatalErr(base, ExitError)

	if !errors.Is(ferr, suture.ErrTerminateSupervisorTree) {
		t.Error("fatal error should terminate the supervisor tree")
	}
	if !errors.Is(ferr, base) {
		t.Error("fatal error should unwrap to its cause")
	}
	if again := AsFatalErr(fmt.Errorf("wrapped: %w", ferr), ExitUsage); again != ferr {
		t.Error("fatal error should not be wrapped twice")
	}
}

func TestNoRestartErr(t *testing.T) {
	if !errors.Is(NoRestartErr(nil), suture.ErrDoNotRestart) {
		t.Error("nil should map to ErrDoNotRestart")
	}
	base := errors.New("done")
	err := NoRestartErr(base)
	if !errors.Is(err, suture.ErrDoNotRestart) || !errors.Is(err, base) {
		t.Error("wrapped error should match both ErrDoNotRestart and its cause")
	}
}

func TestExitStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status ExitStatus
	}{
		{nil, ExitSuccess},
		{context.Canceled, ExitSuccess},
		{errors.New("boom"), ExitError},
		{AsFatalErr(errors.New("usage"), ExitUsage), ExitUsage},
	}
	for _, tc := range cases {
		if s := ExitStatusFor(tc.err); s != tc.status {
			t.Errorf("ExitStatusFor(%v) = %d, expected %d", tc.err, s, tc.status)
		}
	}
}

func TestAsServiceRecordsError(t *testing.T) {
	boom := errors.New("boom")
	svc := AsService(func(context.Context) error { return boom }, "test")
	if err := svc.Serve(context.Background()); err != boom {
		t.Fatalf("unexpected error %v", err)
	}
	if svc.Error() != boom {
		t.Error("service should remember its last error")
	}
}
