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

// Package metaindex implements the single encrypted document that maps
// logical filenames to file records: validation of its shape, schema
// migration, and reconstruction from the chain store when it is absent
// or unreadable (spec §4.5).
package metaindex

import (
	"encoding/json"
	"errors"
	"time"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// CurrentSchemaVersion is the schema version written by Save. Indexes
// stored at a lower version are migrated on Load.
const CurrentSchemaVersion = 2

// DefaultMime is assigned to records a migration or rebuild cannot infer
// a real MIME type for.
const DefaultMime = "text/markdown"

// indexKey is the sole key used in the meta collection.
const indexKey = "index"

// FileRecord is the durable state of one logical filename.
type FileRecord struct {
	Mime               string  `json:"mime"`
	ChainID            string  `json:"chain_id"`
	HeadVersion        int     `json:"head_version"`
	LastModified       int64   `json:"last_modified"`
	LastSize           int     `json:"last_size"`
	LastCompressedSize int     `json:"last_compressed_size"`
	ActiveKey          *string `json:"active_key"`
}

// Index is the full decrypted metadata document.
type Index struct {
	SchemaVersion int                   `json:"schema_version"`
	Files         map[string]FileRecord `json:"files"`
}

// RecoveryInfo is returned by Load when the index had to be rebuilt from
// the chain store rather than read directly.
type RecoveryInfo struct {
	Rebuilt        bool
	FilesRecovered int
	Reason         string
}

func newEmpty() *Index {
	return &Index{SchemaVersion: CurrentSchemaVersion, Files: make(map[string]FileRecord)}
}

// Clone returns a shallow copy of idx with its own Files map, so a
// caller can stage an edit without mutating the original until it is
// known to have been durably committed.
func Clone(idx *Index) *Index {
	files := make(map[string]FileRecord, len(idx.Files))
	for k, v := range idx.Files {
		files[k] = v
	}
	return &Index{SchemaVersion: idx.SchemaVersion, Files: files}
}

// Load reads and decrypts the metadata index. If it is absent or fails
// shape validation, it is rebuilt from mgr's chains; if its schema
// version is stale, it is migrated in place. Either path rewrites the
// stored index. Only a rebuild is reported via the returned *RecoveryInfo;
// it is nil after a migration and on a clean, already-current read.
func Load(store kvstore.Store, keys *vaultcrypto.Keys, mgr *chain.Manager) (*Index, *RecoveryInfo, error) {
	raw, err := store.Get(kvstore.Meta, indexKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return rebuild(store, keys, mgr, "metadata index is absent")
	}
	if err != nil {
		return nil, nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "reading metadata index", err)
	}

	idx, parseErr := decryptAndParse(raw, keys)
	if parseErr != nil {
		return rebuild(store, keys, mgr, "metadata index failed validation: "+parseErr.Error())
	}

	if idx.SchemaVersion < CurrentSchemaVersion {
		migrate(idx)
		if err := Save(store, keys, idx); err != nil {
			return nil, nil, err
		}
	}
	return idx, nil, nil
}

func rebuild(store kvstore.Store, keys *vaultcrypto.Keys, mgr *chain.Manager, reason string) (*Index, *RecoveryInfo, error) {
	idx, err := rebuildFromChains(store, mgr)
	if err != nil {
		return nil, nil, err
	}
	if err := Save(store, keys, idx); err != nil {
		return nil, nil, err
	}
	return idx, &RecoveryInfo{Rebuilt: true, FilesRecovered: len(idx.Files), Reason: reason}, nil
}

// rebuildFromChains walks every chain in the store and, for each whose
// head version's blob still exists, synthesizes a file record under a
// recovered_<chainId prefix> name.
func rebuildFromChains(store kvstore.Store, mgr *chain.Manager) (*Index, error) {
	idx := newEmpty()

	chainIDs, err := store.ListKeys(kvstore.Chains)
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "listing chains during rebuild", err)
	}
	for _, chainID := range chainIDs {
		c, err := mgr.Load(chainID)
		if err != nil {
			continue // unreadable chain: not recoverable, skip it
		}
		head, ok := c.Head()
		if !ok {
			continue
		}
		if _, err := store.Get(kvstore.Files, head.Key); err != nil {
			continue // head blob gone too: nothing to recover
		}

		name := "recovered_" + shortID(chainID)
		key := head.Key
		idx.Files[name] = FileRecord{
			Mime:         DefaultMime,
			ChainID:      chainID,
			HeadVersion:  head.Version,
			LastModified: head.Ts,
			LastSize:     head.Size,
			ActiveKey:    &key,
		}
	}
	return idx, nil
}

func shortID(chainID string) string {
	if len(chainID) <= 8 {
		return chainID
	}
	return chainID[:8]
}

// migrate fills defaults a prior schema version's records may be
// missing, then advances SchemaVersion to current.
func migrate(idx *Index) {
	now := time.Now().UnixMilli()
	for name, rec := range idx.Files {
		changed := false
		if rec.Mime == "" {
			rec.Mime = DefaultMime
			changed = true
		}
		if rec.LastModified == 0 {
			rec.LastModified = now
			changed = true
		}
		if changed {
			idx.Files[name] = rec
		}
	}
	idx.SchemaVersion = CurrentSchemaVersion
}

// Save encrypts and persists idx as the vault's sole metadata document.
// Per spec §6, meta/index carries AES-GCM(iv, enc_key, JSON(...)) directly
// -- unlike chains/ and files/, it is never DEFLATEd first.
func Save(store kvstore.Store, keys *vaultcrypto.Keys, idx *Index) error {
	idx.SchemaVersion = CurrentSchemaVersion
	jsonBytes, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	sealed, err := vaultcrypto.Encrypt(keys.EncKey, jsonBytes)
	if err != nil {
		return hashfserr.Wrap(hashfserr.KdfFailure, "encrypting metadata index", err)
	}
	raw, err := json.Marshal(chain.BlobRecord{IV: sealed.IV, Ciphertext: sealed.Ciphertext})
	if err != nil {
		return err
	}
	return store.Put(kvstore.Meta, indexKey, raw)
}

func decryptAndParse(raw []byte, keys *vaultcrypto.Keys) (*Index, error) {
	var rec chain.BlobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	jsonBytes, err := vaultcrypto.Decrypt(keys.EncKey, vaultcrypto.Sealed{IV: rec.IV, Ciphertext: rec.Ciphertext})
	if err != nil {
		return nil, err
	}
	if err := validateShape(jsonBytes); err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(jsonBytes, &idx); err != nil {
		return nil, err
	}
	if idx.Files == nil {
		idx.Files = make(map[string]FileRecord)
	}
	return &idx, nil
}

// validateShape enforces spec §4.5 step 2: a top-level object containing
// a files mapping of filename -> record with at least a mime string.
func validateShape(jsonBytes []byte) error {
	var generic struct {
		Files map[string]struct {
			Mime *string `json:"mime"`
		} `json:"files"`
	}
	if err := json.Unmarshal(jsonBytes, &generic); err != nil {
		return errors.New("not a metadata index object")
	}
	if generic.Files == nil {
		return errors.New("missing top-level \"files\" mapping")
	}
	for name, rec := range generic.Files {
		if rec.Mime == nil {
			return errors.New("file record " + name + " is missing a mime string")
		}
	}
	return nil
}
