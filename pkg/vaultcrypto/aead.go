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

package vaultcrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// NonceSize is the length of the random IV generated per Encrypt call.
const NonceSize = 12

// ErrDecryptFailure is returned by Decrypt on any authentication or
// length failure. Package vault's content-blob read translates it into
// hashfserr.DecryptFailure; the chain manager reports it as ChainCorrupt.
var ErrDecryptFailure = errors.New("vaultcrypto: decrypt failure")

// Sealed is an encrypted payload: a fresh IV and the GCM ciphertext
// (which includes the 16-byte authentication tag).
type Sealed struct {
	IV         []byte
	Ciphertext []byte
}

// Encrypt seals plaintext under key with a freshly generated random IV.
// It never reuses an IV: every call draws NonceSize fresh bytes from
// crypto/rand before sealing.
func Encrypt(key [32]byte, plaintext []byte) (Sealed, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return Sealed{}, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Sealed{}, err
	}
	iv := make([]byte, NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return Sealed{}, fmt.Errorf("vaultcrypto: generating IV: %w", err)
	}
	ct := gcm.Seal(nil, iv, plaintext, nil)
	return Sealed{IV: iv, Ciphertext: ct}, nil
}

// Decrypt is the inverse of Encrypt. It fails with ErrDecryptFailure on
// tag mismatch, never on any other kind of partial success.
func Decrypt(key [32]byte, s Sealed) ([]byte, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(s.IV) != NonceSize {
		return nil, ErrDecryptFailure
	}
	pt, err := gcm.Open(nil, s.IV, s.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptFailure
	}
	return pt, nil
}
