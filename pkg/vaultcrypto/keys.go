/*
Copyright 2013 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package vaultcrypto holds the vault's key derivation and cryptographic
// primitives: scrypt+HKDF key derivation, Ed25519 signing, AES-256-GCM
// encryption, and content hashing glue. Everything here operates on
// in-memory key material only; nothing is persisted by this package.
package vaultcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
	"lukechampine.com/blake3"
)

// CryptoVersion is embedded in the scrypt salt and in the vault namespace
// string. Bumping it forces every existing passphrase to derive a new,
// unrelated vault identity -- the documented way to retire an old KDF
// parameter set.
const CryptoVersion = "v1"

// MinPassphraseBytes is the minimum encoded length accepted by
// DeriveKeys.
const MinPassphraseBytes = 8

// scrypt cost parameters. N is intentionally expensive: this is a
// client-side, once-per-unlock derivation, not a per-request one.
const (
	scryptN      = 1 << 17
	scryptR      = 8
	scryptP      = 1
	scryptDKLen  = 32
	subkeyLength = 32
)

// ErrPassphraseTooShort is returned by DeriveKeys when the normalized
// passphrase is shorter than MinPassphraseBytes.
var ErrPassphraseTooShort = errors.New("vaultcrypto: passphrase too short")

// Keys holds one session's derived key material (spec: "session, held in
// memory only").
type Keys struct {
	SigKey ed25519.PrivateKey // 64 B seed+pub, used to sign content/chain hashes
	PubKey ed25519.PublicKey  // 32 B, used to verify and to derive the vault id
	EncKey [32]byte           // AES-256-GCM key

	// VaultID is hex(BLAKE3(PubKey)[:16]) + "-" + CryptoVersion, the
	// storage namespace this passphrase addresses.
	VaultID string
}

// salt returns the fixed, versioned salt used for both the scrypt call and
// the two HKDF derivations. Folding CryptoVersion into the salt is what
// makes a crypto-version bump produce an unrelated vault: every derived
// key changes even for the same passphrase bytes.
func salt() []byte {
	return []byte("hashfs-kdf-" + CryptoVersion)
}

// normalize trims outer whitespace and returns the UTF-8 bytes of the
// passphrase. HashFS does not apply Unicode normalization beyond what the
// caller already typed; trimming only addresses the common
// copy-paste-with-trailing-newline case.
func normalize(passphrase string) []byte {
	start, end := 0, len(passphrase)
	for start < end && isSpace(passphrase[start]) {
		start++
	}
	for end > start && isSpace(passphrase[end-1]) {
		end--
	}
	return []byte(passphrase[start:end])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// DeriveKeys runs the full key hierarchy (spec: scrypt -> HKDF -> Ed25519
// -> vault id) for passphrase. It is deliberately slow: scrypt with
// N=2^17 is the dominant cost of every init call.
func DeriveKeys(passphrase string) (*Keys, error) {
	pass := normalize(passphrase)
	if len(pass) < MinPassphraseBytes {
		return nil, ErrPassphraseTooShort
	}
	s := salt()

	master, err := scrypt.Key(pass, s, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return nil, err
	}

	sigSeed, err := hkdfExpand(master, s, "signing")
	if err != nil {
		return nil, err
	}
	encKeyBytes, err := hkdfExpand(master, s, "encryption")
	if err != nil {
		return nil, err
	}

	sigKey := ed25519.NewKeyFromSeed(sigSeed)
	pubKey := sigKey.Public().(ed25519.PublicKey)

	var encKey [32]byte
	copy(encKey[:], encKeyBytes)

	digest := blake3.Sum256(pubKey)
	vaultID := hex.EncodeToString(digest[:16]) + "-" + CryptoVersion

	return &Keys{
		SigKey:  sigKey,
		PubKey:  pubKey,
		EncKey:  encKey,
		VaultID: vaultID,
	}, nil
}

func hkdfExpand(secret, salt []byte, info string) ([]byte, error) {
	r := hkdf.New(newSHA256, secret, salt, []byte(info))
	out := make([]byte, subkeyLength)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
