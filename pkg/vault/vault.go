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

// Package vault implements the engine: the single-threaded orchestrator
// that drives key derivation, the key-value store, the chain manager and
// the metadata index through init/load/save/delete/rename/import/export/
// integrity-check (spec §4.7).
package vault

import (
	"log"

	"go4.org/jsonconfig"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

// DefaultVersionLimit is the version_limit spec §9's open question
// resolves to when the host does not override it.
const DefaultVersionLimit = 15

// DefaultCacheSize is the chain LRU capacity used when the host does not
// override it.
const DefaultCacheSize = chain.DefaultCacheSize

// Vault is one unlockable namespace: a sqlite-backed store plus, once
// Init succeeds, the derived keys, chain manager and metadata index that
// make it readable and writable. The zero Vault is not usable; construct
// one with New.
type Vault struct {
	dbFile       string
	versionLimit int
	cacheSize    int

	store  kvstore.Store
	keys   *vaultcrypto.Keys
	chains *chain.Manager
	idx    *metaindex.Index

	base    [32]byte
	session [32]byte

	unlocked bool
}

// New validates cfg against the keys Vault construction accepts --
// dbFile (required), versionLimit and cacheSize (both optional) -- and
// returns an unopened Vault. Call Init to unlock it.
func New(cfg jsonconfig.Obj) (*Vault, error) {
	v := &Vault{
		dbFile:       cfg.RequiredString("dbFile"),
		versionLimit: cfg.OptionalInt("versionLimit", DefaultVersionLimit),
		cacheSize:    cfg.OptionalInt("cacheSize", DefaultCacheSize),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// requireUnlocked is the Unauthenticated check spec §4.7 requires at the
// top of every per-file operation.
func (v *Vault) requireUnlocked() error {
	if !v.unlocked {
		return hashfserr.New(hashfserr.Unauthenticated, "vault is not unlocked")
	}
	return nil
}

func (v *Vault) openStore() (kvstore.Store, *RecoveryInfo, error) {
	store, err := kvstore.OpenSQLite(v.dbFile)
	if err == nil {
		if pingErr := store.Ping(); pingErr == nil {
			return store, nil, nil
		} else {
			log.Printf("vault: health probe failed on %s, recreating: %v", v.dbFile, pingErr)
			store.Close()
		}
	} else {
		log.Printf("vault: opening store at %s failed, recreating: %v", v.dbFile, err)
	}

	if err := wipeOnDisk(v.dbFile); err != nil {
		return nil, nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "recreating vault store", err)
	}
	store, err = kvstore.OpenSQLite(v.dbFile)
	if err != nil {
		return nil, nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "reopening vault store after recreate", err)
	}
	return store, &RecoveryInfo{Rebuilt: true, Reason: "store was unreadable or failed its health probe and was recreated empty"}, nil
}
