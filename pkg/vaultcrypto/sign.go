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

// Sign returns hex(Ed25519_sig) of hashHex (itself already a hex string,
// signed as its raw bytes -- callers always pass a hex content or chain
// hash here, never arbitrary plaintext).
func Sign(sigKey ed25519.PrivateKey, hashHex string) string {
	sig := ed25519.Sign(sigKey, []byte(hashHex))
	return hex.EncodeToString(sig)
}
