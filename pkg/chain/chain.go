/*
Copyright 2013 The Camlistore Authors.

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

// Package chain manages the per-file version history: an ordered,
// hash-chained, Ed25519-signed sequence of version entries, each
// pointing at a blob key in the files collection of a kvstore.Store.
package chain

// VersionEntry describes one write of one file.
type VersionEntry struct {
	Version int    `json:"version"`
	Hash    string `json:"hash"`
	Sig     string `json:"sig"`
	Key     string `json:"key"`
	Size    int    `json:"size"`
	Ts      int64  `json:"ts"`
}

// Pruned records how much of a chain's history has been dropped.
type Pruned struct {
	Count      int `json:"count"`
	OldestKept int `json:"oldestKept"`
}

// Chain is the full version history of one file, as it exists decrypted
// and parsed in memory.
type Chain struct {
	Versions  []VersionEntry `json:"versions"`
	Pruned    Pruned         `json:"pruned"`
	ChainHash string         `json:"chain_hash,omitempty"`
	ChainSig  string         `json:"chain_sig,omitempty"`
}

// Empty returns the zero-history chain a missing chain_id resolves to:
// no versions, nothing pruned, ready for the append path.
func Empty() *Chain {
	return &Chain{Versions: nil, Pruned: Pruned{Count: 0, OldestKept: 0}}
}

// Head returns the last (most recent) version entry, or the zero value
// and false if the chain has no versions yet.
func (c *Chain) Head() (VersionEntry, bool) {
	if len(c.Versions) == 0 {
		return VersionEntry{}, false
	}
	return c.Versions[len(c.Versions)-1], true
}

// Find returns the version entry numbered v, or false if absent (either
// never written, or pruned away).
func (c *Chain) Find(v int) (VersionEntry, bool) {
	for _, e := range c.Versions {
		if e.Version == v {
			return e, true
		}
	}
	return VersionEntry{}, false
}

// Hashes returns each version's plaintext hash, in version order -- the
// exact input ChainHash (vaultcrypto) is computed over.
func (c *Chain) Hashes() []string {
	out := make([]string, len(c.Versions))
	for i, e := range c.Versions {
		out[i] = e.Hash
	}
	return out
}

// hasChainSig reports whether this chain was already upgraded to carry a
// chain-level hash and signature, as opposed to a legacy chain that
// predates them.
func (c *Chain) hasChainSig() bool {
	return c.ChainHash != "" && c.ChainSig != ""
}
