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
	"errors"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/codec"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// Load resolves filename and returns the plaintext of the requested
// version (the head version if version is 0), per spec §4.7 load.
func (v *Vault) Load(filename string, version int, validate bool) (*LoadResult, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	rec, ok := v.idx.Files[filename]
	if !ok {
		// spec §4.7 load step 1: an absent record is not an error — the
		// chat layer reads chunk files that have never been written yet.
		return &LoadResult{Bytes: nil, Mime: metaindex.DefaultMime}, nil
	}
	if rec.ActiveKey == nil {
		return &LoadResult{Bytes: nil, Mime: mimeOrDefault(rec.Mime)}, nil
	}

	c, err := v.chains.Load(rec.ChainID)
	if err != nil {
		return nil, err
	}

	target, ok := resolveTarget(c, version)
	if !ok {
		return nil, hashfserr.New(hashfserr.VersionNotFound, "requested version not retained").WithFile(filename).WithVersion(version)
	}

	plaintext, recovered, err := v.fetchVersion(filename, &rec, c, target)
	if err != nil {
		return nil, err
	}

	if validate {
		if err := v.chains.Validate(rec.ChainID); err != nil {
			return nil, err
		}
	}

	served := target.Version
	if recovered {
		// fetchVersion repointed rec at the version it actually served.
		served = rec.HeadVersion
	}

	min, max := availableRange(c)
	return &LoadResult{
		Bytes:             plaintext,
		Mime:              mimeOrDefault(rec.Mime),
		Size:              len(plaintext),
		Version:           served,
		CurrentVersion:    rec.HeadVersion,
		AvailableVersions: AvailableVersions{Min: min, Max: max},
		Recovered:         recovered,
	}, nil
}

func mimeOrDefault(m string) string {
	if m == "" {
		return metaindex.DefaultMime
	}
	return m
}

// resolveTarget picks the version entry to load: the chain head if
// version is 0 (omitted), else the entry numbered version.
func resolveTarget(c *chain.Chain, version int) (chain.VersionEntry, bool) {
	if version == 0 {
		return c.Head()
	}
	return c.Find(version)
}

func availableRange(c *chain.Chain) (min, max int) {
	if len(c.Versions) == 0 {
		return 0, 0
	}
	return c.Versions[0].Version, c.Versions[len(c.Versions)-1].Version
}

// fetchVersion fetches, decrypts, inflates and verifies target's blob.
// If target is the chain head and its blob is missing or fails to
// decrypt or verify, it walks the chain backwards to recover to the
// newest surviving earlier version
// (spec §4.7 load step 4); recovery persists the updated file record.
func (v *Vault) fetchVersion(filename string, rec *metaindex.FileRecord, c *chain.Chain, target chain.VersionEntry) (plaintext []byte, recovered bool, err error) {
	isHead := target.Version == rec.HeadVersion

	plaintext, origErr := v.readAndVerifyBlob(target)
	if origErr == nil {
		return plaintext, false, nil
	}
	if !isHead {
		return nil, false, hashfserr.Wrap(hashfserr.VersionCorrupt, "historical version unreadable", origErr).WithFile(filename).WithVersion(target.Version)
	}
	blobMissing := errors.Is(origErr, kvstore.ErrNotFound)

	// Recovery walk: the head blob is gone or unreadable. Try each
	// earlier retained version, newest first.
	for i := len(c.Versions) - 1; i >= 0; i-- {
		candidate := c.Versions[i]
		if candidate.Version >= target.Version {
			continue
		}
		candidatePlaintext, verr := v.readAndVerifyBlob(candidate)
		if verr != nil {
			continue
		}
		key := candidate.Key
		rec.HeadVersion = candidate.Version
		rec.ActiveKey = &key
		rec.LastSize = candidate.Size
		v.idx.Files[filename] = *rec
		if saveErr := metaindex.Save(v.store, v.keys, v.idx); saveErr != nil {
			return nil, false, saveErr
		}
		return candidatePlaintext, true, nil
	}

	if !blobMissing {
		// The blob exists but failed an integrity check; nothing older
		// survives either. Surface the original, specific failure
		// rather than a generic FileCorrupt.
		if herr, ok := origErr.(*hashfserr.Error); ok {
			return nil, false, herr.WithFile(filename)
		}
		return nil, false, hashfserr.Wrap(hashfserr.FileCorrupt, "head version unreadable", origErr).WithFile(filename)
	}

	// Nothing survived and the head blob was simply absent: the file is
	// unrecoverable.
	delete(v.idx.Files, filename)
	if saveErr := metaindex.Save(v.store, v.keys, v.idx); saveErr != nil {
		return nil, false, saveErr
	}
	return nil, false, hashfserr.New(hashfserr.FileCorrupt, "no retained version of this file survived").WithFile(filename)
}

func (v *Vault) readAndVerifyBlob(e chain.VersionEntry) ([]byte, error) {
	raw, err := v.store.Get(kvstore.Files, e.Key)
	if err != nil {
		return nil, err
	}
	var blobRec chain.BlobRecord
	if err := json.Unmarshal(raw, &blobRec); err != nil {
		return nil, err
	}
	compressed, err := vaultcrypto.Decrypt(v.keys.EncKey, vaultcrypto.Sealed{IV: blobRec.IV, Ciphertext: blobRec.Ciphertext})
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.DecryptFailure, "decrypting content blob", err)
	}
	plaintext, err := codec.Inflate(compressed)
	if err != nil {
		return nil, err
	}
	if vaultcrypto.ContentHash(plaintext) != e.Hash {
		return nil, hashfserr.New(hashfserr.HashMismatch, "content hash mismatch")
	}
	if !vaultcrypto.Verify(v.keys.PubKey, e.Hash, e.Sig) {
		return nil, hashfserr.New(hashfserr.SignatureInvalid, "content signature does not verify")
	}
	return plaintext, nil
}
