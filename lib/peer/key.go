// Copyright (C) 2026 The Cosmoline Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package peer

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"filippo.io/edwards25519"
)

const KeySize = ed25519.PublicKeySize

// A PublicKey is the ed25519 public key identifying a peer. It is a
// comparable value type; the zero value is not a valid key.
type PublicKey [KeySize]byte

// NewPublicKey validates that bs is the encoding of a point on the curve.
func NewPublicKey(bs []byte) (PublicKey, error) {
	var k PublicKey
	if len(bs) != KeySize {
		return k, fmt.Errorf("%w: %d bytes, expected %d", ErrInvalidKeyEncoding, len(bs), KeySize)
	}
	if _, err := new(edwards25519.Point).SetBytes(bs); err != nil {
		return k, fmt.Errorf("%w: %w", ErrInvalidKeyEncoding, err)
	}
	copy(k[:], bs)
	return k, nil
}

// ParsePublicKey decodes the standard base64 form of a key. Both padded and
// unpadded input is accepted.
func ParsePublicKey(s string) (PublicKey, error) {
	bs, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		if bs, rawErr = base64.RawStdEncoding.DecodeString(s); rawErr != nil {
			return PublicKey{}, fmt.Errorf("%w: %w", ErrInvalidKeyEncoding, err)
		}
	}
	return NewPublicKey(bs)
}

// String returns the padded standard base64 form of the key.
func (k PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(k[:])
}

func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *PublicKey) UnmarshalText(bs []byte) error {
	key, err := ParsePublicKey(string(bs))
	if err != nil {
		return err
	}
	*k = key
	return nil
}

func (k PublicKey) Ed25519() ed25519.PublicKey {
	return ed25519.PublicKey(k[:])
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}
