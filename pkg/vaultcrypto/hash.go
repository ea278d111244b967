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
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"lukechampine.com/blake3"
)

func newSHA256() hash.Hash { return sha256.New() }

// ContentHash returns hex(BLAKE3(content)), the content-addressing digest
// used for version hashes and chain hashes.
func ContentHash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Hash32 returns the raw 32-byte BLAKE3 digest of content, for callers
// that need to concatenate it into a further digest (vault fingerprints)
// rather than render it as hex.
func Hash32(content []byte) [32]byte {
	return blake3.Sum256(content)
}

// ChainDomain is the domain-separation prefix BLAKE3-hashed ahead of a
// chain's concatenated version hashes (spec: "HashFS-Chain-v6").
const ChainDomain = "HashFS-Chain-v6"

// ChainHash recomputes a chain's hash from its version hashes (each
// already a hex BLAKE3 digest), in version order. An empty slice hashes
// just the domain-separation prefix.
func ChainHash(versionHashesHex []string) string {
	h := blake3.New(32, nil)
	h.Write([]byte(ChainDomain))
	for _, vh := range versionHashesHex {
		raw, err := hex.DecodeString(vh)
		if err != nil {
			// A malformed stored hash is a chain-corruption signal, not a
			// panic: feed the raw hex bytes through so the resulting
			// chain_hash simply fails verification instead of crashing.
			h.Write([]byte(vh))
			continue
		}
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil))
}
