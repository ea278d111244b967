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
	"bytes"
	"testing"
)

func TestDeriveKeysTooShort(t *testing.T) {
	if _, err := DeriveKeys("short"); err != ErrPassphraseTooShort {
		t.Fatalf("err = %v; want ErrPassphraseTooShort", err)
	}
	if _, err := DeriveKeys("   short "); err != ErrPassphraseTooShort {
		t.Fatalf("err (after trim) = %v; want ErrPassphraseTooShort", err)
	}
}

func TestDeriveKeysDeterministic(t *testing.T) {
	k1, err := DeriveKeys("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	k2, err := DeriveKeys("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if k1.VaultID != k2.VaultID {
		t.Fatalf("same passphrase produced different vault ids: %q vs %q", k1.VaultID, k2.VaultID)
	}
	if !bytes.Equal(k1.EncKey[:], k2.EncKey[:]) {
		t.Fatal("same passphrase produced different encryption keys")
	}
	if !k1.PubKey.Equal(k2.PubKey) {
		t.Fatal("same passphrase produced different signing keys")
	}
}

func TestDeriveKeysDistinctVaults(t *testing.T) {
	k1, err := DeriveKeys("passphrase number one")
	if err != nil {
		t.Fatal(err)
	}
	k2, err := DeriveKeys("passphrase number two")
	if err != nil {
		t.Fatal(err)
	}
	if k1.VaultID == k2.VaultID {
		t.Fatal("distinct passphrases produced the same vault id")
	}
}

func TestSignVerify(t *testing.T) {
	keys, err := DeriveKeys("a sufficiently long passphrase")
	if err != nil {
		t.Fatal(err)
	}
	h := ContentHash([]byte("hello world"))
	sig := Sign(keys.SigKey, h)
	if !Verify(keys.PubKey, h, sig) {
		t.Fatal("Verify failed for a valid signature")
	}
	if Verify(keys.PubKey, ContentHash([]byte("tampered")), sig) {
		t.Fatal("Verify succeeded for mismatched hash")
	}
	if Verify(keys.PubKey, h, "not-hex-at-all!!") {
		t.Fatal("Verify succeeded for malformed signature")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keys, err := DeriveKeys("another long enough passphrase")
	if err != nil {
		t.Fatal(err)
	}
	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	sealed, err := Encrypt(keys.EncKey, plaintext)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decrypt(keys.EncKey, sealed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: %q != %q", got, plaintext)
	}
}

func TestEncryptNeverReusesIV(t *testing.T) {
	keys, err := DeriveKeys("yet another long enough passphrase")
	if err != nil {
		t.Fatal(err)
	}
	s1, err := Encrypt(keys.EncKey, []byte("same plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Encrypt(keys.EncKey, []byte("same plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(s1.IV, s2.IV) {
		t.Fatal("two Encrypt calls produced the same IV")
	}
	if bytes.Equal(s1.Ciphertext, s2.Ciphertext) {
		t.Fatal("two Encrypt calls with the same plaintext produced the same ciphertext")
	}
}

func TestDecryptTamperDetection(t *testing.T) {
	keys, err := DeriveKeys("a fourth long enough passphrase")
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := Encrypt(keys.EncKey, []byte("integrity matters"))
	if err != nil {
		t.Fatal(err)
	}
	tampered := sealed
	ct := make([]byte, len(sealed.Ciphertext))
	copy(ct, sealed.Ciphertext)
	ct[0] ^= 0xff
	tampered.Ciphertext = ct
	if _, err := Decrypt(keys.EncKey, tampered); err != ErrDecryptFailure {
		t.Fatalf("err = %v; want ErrDecryptFailure", err)
	}
}

func TestChainHashEmpty(t *testing.T) {
	empty := ChainHash(nil)
	if empty == "" {
		t.Fatal("ChainHash(nil) returned empty string")
	}
	// Deterministic and order-sensitive.
	h1 := ChainHash([]string{ContentHash([]byte("a")), ContentHash([]byte("b"))})
	h2 := ChainHash([]string{ContentHash([]byte("b")), ContentHash([]byte("a"))})
	if h1 == h2 {
		t.Fatal("ChainHash is not order-sensitive")
	}
}
