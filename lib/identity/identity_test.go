// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package identity

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// RFC 8032, test 1.
const (
	seedHex   = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	publicB64 = "11qYAYKxCrfVS/7TyWQHOg7hcvPapiMlrwIaaPcHURo="
)

func testKeypair(t *testing.T) *Keypair {
	t.Helper()
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		t.Fatal(err)
	}
	k, err := FromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	return k
}

func TestFromSeed(t *testing.T) {
	k := testKeypair(t)
	if k.PublicKeyBase64() != publicB64 {
		t.Errorf("got public key %s, expected %s", k.PublicKeyBase64(), publicB64)
	}
	if exp := "@" + publicB64 + ".ed25519"; k.ID() != exp {
		t.Errorf("got id %s, expected %s", k.ID(), exp)
	}

	if !bytes.Equal(k.PublicKey().Ed25519(), k.private.Public().(ed25519.PublicKey)) {
		t.Error("public key does not belong to the private key")
	}

	if _, err := FromSeed([]byte{1, 2, 3}); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("short seed: unexpected error %v", err)
	}
}

func TestMarshalParse(t *testing.T) {
	k := testKeypair(t)
	bs, err := k.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(bs, []byte("# WARNING")) {
		t.Error("secret file should start with a warning")
	}
	if !bytes.Contains(bs, []byte(`"curve": "ed25519"`)) {
		t.Errorf("missing curve in\n%s", bs)
	}

	k2, err := Parse(bs)
	if err != nil {
		t.Fatal(err)
	}
	if k2.PublicKey() != k.PublicKey() || !bytes.Equal(k2.private, k.private) {
		t.Error("keypair changed in round trip")
	}

	k3, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	bs, err = k3.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if k4, err := Parse(bs); err != nil {
		t.Fatal(err)
	} else if k4.ID() != k3.ID() {
		t.Errorf("got %s, expected %s", k4.ID(), k3.ID())
	}
}

func TestParseErrors(t *testing.T) {
	k := testKeypair(t)
	good, err := k.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	other, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	privB64 := func(k *Keypair) string {
		bs, _ := k.Marshal()
		s := string(stripComments(bs))
		i := strings.Index(s, `"private": "`) + len(`"private": "`)
		return s[i : i+strings.Index(s[i:], `"`)]
	}

	cases := []struct {
		name string
		data string
		err  error
	}{
		{"wrong curve", strings.Replace(string(good), `"curve": "ed25519"`, `"curve": "secp256k1"`, 1), ErrWrongCurve},
		{"no suffix", strings.Replace(string(good), publicB64+`.ed25519"`, publicB64+`"`, 1), ErrMalformedKey},
		{"bad base64", strings.Replace(string(good), publicB64, "!!!", 1), ErrMalformedKey},
		{"mismatch", strings.Replace(string(good), privB64(k), privB64(other), 1), ErrMismatchedKeys},
		{"short private", strings.Replace(string(good), privB64(k), "AAAA.ed25519", 1), ErrMalformedKey},
		{"not json", "# nothing here\n", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			if err == nil {
				t.Fatal("unexpected success")
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Errorf("got %v, expected %v", err, tc.err)
			}
		})
	}
}

func TestStripComments(t *testing.T) {
	in := "# header\n{\n  \"a\": 1 # trailing\n}\n   # indented\n"
	exp := "\n{\n  \"a\": 1 \n}\n   \n"
	if res := string(stripComments([]byte(in))); res != exp {
		t.Errorf("got %q, expected %q", res, exp)
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home", "secret")

	k, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("secret file has mode 0%03o, expected 0600", info.Mode().Perm())
	}

	k2, err := LoadOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if k2.ID() != k.ID() {
		t.Errorf("second load returned %s, expected %s", k2.ID(), k.ID())
	}
}

func TestLoadOrCreateDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(`{"curve": "curve25519"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrCreate(path); !errors.Is(err, ErrWrongCurve) {
		t.Fatalf("unexpected error %v", err)
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != `{"curve": "curve25519"}` {
		t.Error("broken secret file was overwritten")
	}
}
