// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package identity manages the node's long-term ed25519 keypair and the
// secret file it is stored in.
//
// The secret file is JSON with the fields curve, public, private and id.
// Keys are standard base64 with a ".ed25519" suffix, the private key being
// the 32-byte seed followed by the public key. Anything from a '#' to the
// end of a line is a comment.
package identity

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cosmoline/cosmoline/internal/slogutil"
	"github.com/cosmoline/cosmoline/lib/osutil"
	"github.com/cosmoline/cosmoline/lib/peer"
)

const (
	curveName = "ed25519"
	keySuffix = "." + curveName
)

func init() {
	slogutil.RegisterPackage("Node identity and secret file")
}

var (
	ErrWrongCurve     = errors.New("unsupported curve")
	ErrMalformedKey   = errors.New("malformed key")
	ErrMismatchedKeys = errors.New("public key does not match private key")
)

const secretHeader = `# WARNING: Never show this to anyone.
# WARNING: Never edit it or use it on multiple devices at once.
#
# This is your SECRET, it gives you magical powers. With your secret you can
# sign your messages so that your friends can verify that the messages came
# from you. If anyone learns your secret, they can use it to impersonate you.
#
# If you use this secret on more than one device you will create a fork and
# your friends will stop replicating your content.
#
`

// A Keypair is the node's identity. It is immutable.
type Keypair struct {
	private ed25519.PrivateKey
	public  peer.PublicKey
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating keypair: %w", err)
	}
	return fromPrivate(priv)
}

// FromSeed derives the keypair for a 32-byte ed25519 seed.
func FromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes, expected %d", ErrMalformedKey, len(seed), ed25519.SeedSize)
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed))
}

func fromPrivate(priv ed25519.PrivateKey) (*Keypair, error) {
	pub, err := peer.NewPublicKey(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Keypair{private: priv, public: pub}, nil
}

func (k *Keypair) PublicKey() peer.PublicKey {
	return k.public
}

// PublicKeyBase64 is the key as it appears in discovery packets.
func (k *Keypair) PublicKeyBase64() string {
	return k.public.String()
}

// ID is the "@<key>.ed25519" form of the public key.
func (k *Keypair) ID() string {
	return "@" + k.public.String() + keySuffix
}

func (k *Keypair) String() string {
	return k.ID()
}

type secretFile struct {
	Curve   string `json:"curve"`
	Public  string `json:"public"`
	Private string `json:"private"`
	ID      string `json:"id"`
}

// Marshal returns the secret file contents for the keypair, including the
// warning header.
func (k *Keypair) Marshal() ([]byte, error) {
	bs, err := json.MarshalIndent(secretFile{
		Curve:   curveName,
		Public:  k.public.String() + keySuffix,
		Private: base64.StdEncoding.EncodeToString(k.private) + keySuffix,
		ID:      k.ID(),
	}, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(secretHeader)
	buf.Write(bs)
	buf.WriteString("\n\n")
	fmt.Fprintf(&buf, "# The only part of this file that's safe to share is your public name:\n#\n#   %s\n", k.ID())
	return buf.Bytes(), nil
}

// Parse reads a keypair from secret file contents.
func Parse(data []byte) (*Keypair, error) {
	var sf secretFile
	if err := json.Unmarshal(stripComments(data), &sf); err != nil {
		return nil, fmt.Errorf("parsing secret: %w", err)
	}
	if sf.Curve != curveName {
		return nil, fmt.Errorf("%w: %q", ErrWrongCurve, sf.Curve)
	}

	pub, err := decodeKey(sf.Public)
	if err != nil {
		return nil, fmt.Errorf("public: %w", err)
	}
	priv, err := decodeKey(sf.Private)
	if err != nil {
		return nil, fmt.Errorf("private: %w", err)
	}
	if len(priv) < ed25519.SeedSize {
		return nil, fmt.Errorf("private: %w: %d bytes", ErrMalformedKey, len(priv))
	}

	k, err := FromSeed(priv[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(k.public[:], pub) {
		return nil, ErrMismatchedKeys
	}
	return k, nil
}

func decodeKey(s string) ([]byte, error) {
	s, ok := strings.CutSuffix(s, keySuffix)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s suffix", ErrMalformedKey, keySuffix)
	}
	bs, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	return bs, nil
}

func stripComments(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		if idx := bytes.IndexByte(line, '#'); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return bytes.Join(lines, []byte("\n"))
}

// Load reads the keypair stored at path.
func Load(path string) (*Keypair, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// Save writes the keypair to path, readable only by the owner.
func (k *Keypair) Save(path string) error {
	bs, err := k.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	w, err := osutil.CreateAtomic(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(bs); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// LoadOrCreate loads the keypair at path, generating and saving a new one
// if the file does not exist.
func LoadOrCreate(path string) (*Keypair, error) {
	k, err := Load(path)
	if err == nil {
		slog.Debug("Loaded identity", "id", k.ID(), "path", path)
		return k, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	k, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := k.Save(path); err != nil {
		return nil, fmt.Errorf("saving new identity: %w", err)
	}
	slog.Info("Generated new identity", "id", k.ID(), "path", path)
	return k, nil
}
