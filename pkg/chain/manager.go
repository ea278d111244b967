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

package chain

import (
	"encoding/json"
	"errors"

	"hashfs.io/hashfs/pkg/codec"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/lru"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// DefaultCacheSize is the LRU capacity spec §4.6 names for loaded chains.
const DefaultCacheSize = 20

// Manager owns the LRU cache of decrypted chains and the store/keys
// needed to load, verify, save and prune them. One Manager per unlocked
// vault session.
type Manager struct {
	store kvstore.Store
	keys  *vaultcrypto.Keys
	cache *lru.Cache[*Chain]
}

// NewManager returns a Manager backed by store, using keys for
// sign/verify/encrypt/decrypt, caching up to cacheSize decrypted chains.
func NewManager(store kvstore.Store, keys *vaultcrypto.Keys, cacheSize int) *Manager {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Manager{store: store, keys: keys, cache: lru.New[*Chain](cacheSize)}
}

// Load returns the chain for chainID, verifying its signatures. A chain
// that has never been written resolves to Empty(), not an error.
func (m *Manager) Load(chainID string) (*Chain, error) {
	if c, ok := m.cache.Get(chainID); ok {
		return c, nil
	}

	raw, err := m.store.Get(kvstore.Chains, chainID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Empty(), nil
	}
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.ChainCorrupt, "reading chain blob", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, hashfserr.Wrap(hashfserr.ChainCorrupt, "chain record is not valid JSON", err)
	}
	if rec.Sig == "" {
		return nil, hashfserr.New(hashfserr.ChainCorrupt, "chain record missing signature")
	}

	compressed, err := vaultcrypto.Decrypt(m.keys.EncKey, vaultcrypto.Sealed{IV: rec.IV, Ciphertext: rec.Ciphertext})
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.ChainCorrupt, "decrypting chain blob", err)
	}
	hashHex := vaultcrypto.ContentHash(compressed)
	if !vaultcrypto.Verify(m.keys.PubKey, hashHex, rec.Sig) {
		return nil, hashfserr.New(hashfserr.SignatureInvalid, "chain signature does not verify")
	}

	jsonBytes, err := codec.Inflate(compressed)
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.ChainCorrupt, "inflating chain payload", err)
	}
	var c Chain
	if err := json.Unmarshal(jsonBytes, &c); err != nil {
		return nil, hashfserr.Wrap(hashfserr.ChainCorrupt, "chain payload is not valid JSON", err)
	}

	if c.hasChainSig() {
		want := vaultcrypto.ChainHash(c.Hashes())
		if want != c.ChainHash || !vaultcrypto.Verify(m.keys.PubKey, c.ChainHash, c.ChainSig) {
			return nil, hashfserr.New(hashfserr.ChainCorrupt, "chain_hash/chain_sig mismatch")
		}
	} else if c.ChainHash != "" || c.ChainSig != "" {
		// Only one of the pair is present: not a legacy chain, a damaged one.
		return nil, hashfserr.New(hashfserr.ChainCorrupt, "chain carries only one of chain_hash/chain_sig")
	} else {
		// Legacy chain predating chain-level signing: upgrade in place.
		m.signChainHash(&c)
		if err := m.Save(chainID, &c); err != nil {
			return nil, err
		}
	}

	m.cache.Add(chainID, &c)
	return &c, nil
}

// Save encrypts, signs and persists chain under chainID, and refreshes
// the cache entry.
func (m *Manager) Save(chainID string, c *Chain) error {
	m.signChainHash(c)

	jsonBytes, err := json.Marshal(c)
	if err != nil {
		return hashfserr.Wrap(hashfserr.ChainCorrupt, "marshaling chain", err)
	}
	compressed, err := codec.Compress(jsonBytes)
	if err != nil {
		return hashfserr.Wrap(hashfserr.ChainCorrupt, "compressing chain", err)
	}
	hashHex := vaultcrypto.ContentHash(compressed)
	sig := vaultcrypto.Sign(m.keys.SigKey, hashHex)

	sealed, err := vaultcrypto.Encrypt(m.keys.EncKey, compressed)
	if err != nil {
		return hashfserr.Wrap(hashfserr.KdfFailure, "encrypting chain", err)
	}
	raw, err := json.Marshal(record{IV: sealed.IV, Ciphertext: sealed.Ciphertext, Sig: sig})
	if err != nil {
		return err
	}
	if err := m.store.Put(kvstore.Chains, chainID, raw); err != nil {
		return err
	}

	m.cache.Add(chainID, c)
	return nil
}

// signChainHash recomputes and (re)signs chain_hash over c's current
// versions. Idempotent: calling it twice on an unchanged chain produces
// the same chain_hash and a fresh, equally-valid signature.
func (m *Manager) signChainHash(c *Chain) {
	c.ChainHash = vaultcrypto.ChainHash(c.Hashes())
	c.ChainSig = vaultcrypto.Sign(m.keys.SigKey, c.ChainHash)
}

// Append adds entry to the chain named chainID, pruning to versionLimit
// by dropping the oldest entries, and returns the updated chain plus the
// blob keys of any dropped versions (the caller deletes those from the
// files collection in a separate transaction, per spec §4.7 save step 8).
func (m *Manager) Append(chainID string, entry VersionEntry, versionLimit int) (*Chain, []string, error) {
	c, err := m.Load(chainID)
	if err != nil {
		return nil, nil, err
	}
	c.Versions = append(c.Versions, entry)

	var dropped []string
	if versionLimit > 0 && len(c.Versions) > versionLimit {
		excess := len(c.Versions) - versionLimit
		for _, e := range c.Versions[:excess] {
			dropped = append(dropped, e.Key)
		}
		c.Versions = c.Versions[excess:]
		c.Pruned.Count += excess
	}
	if len(c.Versions) > 0 {
		c.Pruned.OldestKept = c.Versions[0].Version
	}

	if err := m.Save(chainID, c); err != nil {
		return nil, nil, err
	}
	return c, dropped, nil
}

// Forget evicts chainID from the cache without touching the store. Used
// after a chain has been deleted out from under the manager, so a stale
// cache hit can't resurrect it.
func (m *Manager) Forget(chainID string) {
	m.cache.Remove(chainID)
}

// Validate fetches and verifies every retained version's blob: decrypt,
// inflate, rehash, and check both the hash and the per-version
// signature. It reports the first offending version number found.
func (m *Manager) Validate(chainID string) error {
	c, err := m.Load(chainID)
	if err != nil {
		return err
	}
	for _, e := range c.Versions {
		if err := m.validateVersion(e); err != nil {
			return hashfserr.Wrap(hashfserr.ChainCorrupt, "chain integrity check failed", err).WithVersion(e.Version)
		}
	}
	return nil
}

func (m *Manager) validateVersion(e VersionEntry) error {
	raw, err := m.store.Get(kvstore.Files, e.Key)
	if err != nil {
		return err
	}
	var rec BlobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	compressed, err := vaultcrypto.Decrypt(m.keys.EncKey, vaultcrypto.Sealed{IV: rec.IV, Ciphertext: rec.Ciphertext})
	if err != nil {
		return err
	}
	plaintext, err := codec.Inflate(compressed)
	if err != nil {
		return err
	}
	hashHex := vaultcrypto.ContentHash(plaintext)
	if hashHex != e.Hash {
		return hashfserr.New(hashfserr.HashMismatch, "version content hash mismatch")
	}
	if !vaultcrypto.Verify(m.keys.PubKey, e.Hash, e.Sig) {
		return hashfserr.New(hashfserr.SignatureInvalid, "version signature does not verify")
	}
	return nil
}

// BlobRecord is the files-collection wire shape for one version's
// ciphertext (no signature: integrity of content blobs is carried by
// the chain's per-version hash and sig, per spec §4.4). Shared with
// package vault, which writes and reads these same rows.
type BlobRecord struct {
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
}
