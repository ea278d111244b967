/*
Copyright 2011 Google Inc.

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
	"crypto/ed25519"
	"encoding/hex"
)

// Verify reports whether sigHex is a valid Ed25519 signature of hashHex
// under pubKey. It never panics or returns an error: any parse failure is
// simply treated as an invalid signature, per spec.
func Verify(pubKey ed25519.PublicKey, hashHex, sigHex string) bool {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pubKey, []byte(hashHex), sig)
}
