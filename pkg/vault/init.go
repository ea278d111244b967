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
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"sort"
	"time"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// Init derives the session keys from passphrase, opens (recovering if
// necessary) the backing store, loads (rebuilding if necessary) the
// metadata index, and computes the vault's fingerprint pair.
func (v *Vault) Init(passphrase string) (*InitResult, error) {
	keys, err := vaultcrypto.DeriveKeys(passphrase)
	if err != nil {
		if errors.Is(err, vaultcrypto.ErrPassphraseTooShort) {
			return nil, hashfserr.Wrap(hashfserr.PassphraseTooShort, "passphrase too short", err)
		}
		return nil, hashfserr.Wrap(hashfserr.KdfFailure, "deriving vault keys", err)
	}
	v.keys = keys

	store, storeRecovery, err := v.openStore()
	if err != nil {
		return nil, err
	}
	v.store = store

	v.chains = chain.NewManager(v.store, v.keys, v.cacheSize)

	idx, idxRecovery, err := metaindex.Load(v.store, v.keys, v.chains)
	if err != nil {
		return nil, err
	}
	v.idx = idx

	if err := v.ensureIntegrityBookkeeping(); err != nil {
		return nil, err
	}

	base, session, err := v.computeFingerprint()
	if err != nil {
		return nil, err
	}
	v.base, v.session = base, session
	v.unlocked = true

	var recovery *RecoveryInfo
	switch {
	case storeRecovery != nil:
		recovery = storeRecovery
	case idxRecovery != nil:
		recovery = &RecoveryInfo{Rebuilt: true, Reason: idxRecovery.Reason}
	}

	return &InitResult{
		Files:       v.fileSummaries(),
		Fingerprint: Fingerprint{Base: hex.EncodeToString(v.base[:]), Session: hex.EncodeToString(v.session[:])},
		Recovery:    recovery,
	}, nil
}

// computeFingerprint derives the (base, session) pair of spec §4.7 step
// 4: base identifies the vault namespace, session additionally
// identifies this particular unlock.
func (v *Vault) computeFingerprint() (base, session [32]byte, err error) {
	dbNameBytes := truncate([]byte(v.dbFile), 32)
	base = vaultcrypto.Hash32(append(append([]byte{}, dbNameBytes...), v.keys.EncKey[:]...))

	entropy := make([]byte, 8, 40)
	binary.BigEndian.PutUint64(entropy, uint64(time.Now().UnixMilli()))
	randPart, err := vaultcrypto.RandomBytes(32)
	if err != nil {
		return base, session, err
	}
	entropy = append(entropy, randPart...)

	session = vaultcrypto.Hash32(append(append([]byte{}, base[:]...), entropy...))
	return base, session, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// ensureIntegrityBookkeeping writes the integrity/created row the first
// time a vault is seen and rewrites integrity/metaVersion on every Init,
// per the persisted storage layout of spec §6.
func (v *Vault) ensureIntegrityBookkeeping() error {
	if _, err := v.store.Get(kvstore.Integrity, "created"); err != nil {
		now := time.Now().UnixMilli()
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(now))
		if err := v.store.Put(kvstore.Integrity, "created", buf); err != nil {
			return err
		}
	}
	metaVersionBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(metaVersionBuf, uint64(metaindex.CurrentSchemaVersion))
	return v.store.Put(kvstore.Integrity, "metaVersion", metaVersionBuf)
}

// fileSummaries renders the metadata index as the sorted summary list
// spec §4.7 step 5 names.
func (v *Vault) fileSummaries() []FileSummary {
	out := make([]FileSummary, 0, len(v.idx.Files))
	for name, rec := range v.idx.Files {
		out = append(out, FileSummary{
			Name:               name,
			Mime:               rec.Mime,
			HeadVersion:        rec.HeadVersion,
			LastSize:           rec.LastSize,
			LastCompressedSize: rec.LastCompressedSize,
			LastModified:       rec.LastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// wipeOnDisk removes a sqlite file wholesale so the next OpenSQLite call
// recreates it from an empty schema. Used only when the file is
// considered unsalvageable (missing/corrupt, or failing its health
// probe); an in-place Wipe is what clears a healthy, already-open store.
func wipeOnDisk(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
