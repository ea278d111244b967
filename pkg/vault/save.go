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

package vault

import (
	"encoding/json"
	"log"
	"time"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/codec"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// Save writes plaintext as a new version of filename, per spec §4.7
// save. A write whose content hash matches the current head is a no-op
// beyond an optional MIME update.
func (v *Vault) Save(filename string, plaintext []byte, mime string, opts SaveOptions) (*SaveResult, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	hashHex := vaultcrypto.ContentHash(plaintext)

	rec, existed := v.idx.Files[filename]
	if !existed {
		rec = metaindex.FileRecord{ChainID: newChainID(), HeadVersion: 0}
	}

	c, err := v.chains.Load(rec.ChainID)
	if err != nil {
		return nil, err
	}

	if head, ok := c.Head(); ok && head.Hash == hashHex {
		if mime != "" && mime != rec.Mime {
			staged := metaindex.Clone(v.idx)
			rec.Mime = mime
			staged.Files[filename] = rec
			if err := metaindex.Save(v.store, v.keys, staged); err != nil {
				return nil, err
			}
			v.idx = staged
		}
		return &SaveResult{Unchanged: true}, nil
	}

	sig := vaultcrypto.Sign(v.keys.SigKey, hashHex)
	blobKey := newBlobKey()
	version := rec.HeadVersion + 1

	compressed, err := codec.Compress(plaintext)
	if err != nil {
		return nil, err
	}
	sealed, err := vaultcrypto.Encrypt(v.keys.EncKey, compressed)
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.KdfFailure, "encrypting content", err)
	}
	blobRaw, err := json.Marshal(chain.BlobRecord{IV: sealed.IV, Ciphertext: sealed.Ciphertext})
	if err != nil {
		return nil, err
	}

	resolvedMime := mime
	if resolvedMime == "" {
		resolvedMime = mimeOrDefault(rec.Mime)
	}
	rec.Mime = resolvedMime
	rec.HeadVersion = version
	rec.LastModified = time.Now().UnixMilli()
	rec.LastSize = len(plaintext)
	rec.LastCompressedSize = len(compressed)
	rec.ActiveKey = &blobKey

	// Stage the updated index in a scratch copy: nothing touches v.idx
	// until transaction A actually commits, so a failure anywhere above
	// this point leaves the vault identical to its pre-call state.
	staged := metaindex.Clone(v.idx)
	staged.Files[filename] = rec
	staged.SchemaVersion = metaindex.CurrentSchemaVersion
	metaJSON, err := json.Marshal(staged)
	if err != nil {
		return nil, err
	}
	metaRaw, err := v.sealMeta(metaJSON)
	if err != nil {
		return nil, err
	}
	txn, err := v.store.BeginTxn()
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "beginning save transaction", err)
	}
	txn.Put(kvstore.Files, blobKey, blobRaw)
	txn.Put(kvstore.Meta, "index", metaRaw)
	if err := txn.Commit(); err != nil {
		return nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "committing save transaction", err)
	}
	v.idx = staged

	limit := v.versionLimit
	if opts.VersionLimit > 0 {
		limit = opts.VersionLimit
	}
	_, dropped, err := v.chains.Append(rec.ChainID, chain.VersionEntry{
		Version: version,
		Hash:    hashHex,
		Sig:     sig,
		Key:     blobKey,
		Size:    len(plaintext),
		Ts:      rec.LastModified,
	}, limit)
	if err != nil {
		return nil, err
	}

	// Transaction B: delete pruned blobs. Best-effort; failures are
	// orphans, not correctness bugs (spec §4.7 save step 8).
	if len(dropped) > 0 {
		if dtxn, derr := v.store.BeginTxn(); derr == nil {
			for _, key := range dropped {
				dtxn.Delete(kvstore.Files, key)
			}
			if cerr := dtxn.Commit(); cerr != nil {
				log.Printf("vault: pruning blobs for chain %s: %v (now orphaned, collectable by integrity-check)", rec.ChainID, cerr)
			}
		} else {
			log.Printf("vault: pruning blobs for chain %s: %v (now orphaned, collectable by integrity-check)", rec.ChainID, derr)
		}
	}

	return &SaveResult{Version: version, Files: v.fileSummaries()}, nil
}

// sealMeta is a thin wrapper so Save can stage the metadata blob's bytes
// before opening the transaction, matching spec §4.5's "encrypted before
// the transaction begins" requirement. Per spec §6, meta/index is
// AES-GCM(iv, enc_key, JSON(...)) with no DEFLATE step, unlike content
// and chain blobs.
func (v *Vault) sealMeta(jsonBytes []byte) ([]byte, error) {
	sealed, err := vaultcrypto.Encrypt(v.keys.EncKey, jsonBytes)
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.KdfFailure, "encrypting metadata index", err)
	}
	return json.Marshal(chain.BlobRecord{IV: sealed.IV, Ciphertext: sealed.Ciphertext})
}
