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

	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
)

// Delete removes filename, its chain, and every blob its chain ever
// referenced, in a single transaction (spec §4.7 delete).
func (v *Vault) Delete(filename string) (*DeleteResult, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	rec, ok := v.idx.Files[filename]
	if !ok {
		return nil, hashfserr.New(hashfserr.NotFound, "file not found").WithFile(filename)
	}

	c, err := v.chains.Load(rec.ChainID)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	for _, e := range c.Versions {
		keys[e.Key] = true
	}
	if rec.ActiveKey != nil {
		keys[*rec.ActiveKey] = true
	}

	staged := metaindex.Clone(v.idx)
	delete(staged.Files, filename)
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
		return nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "beginning delete transaction", err)
	}
	for key := range keys {
		txn.Delete(kvstore.Files, key)
	}
	txn.Delete(kvstore.Chains, rec.ChainID)
	txn.Put(kvstore.Meta, "index", metaRaw)
	if err := txn.Commit(); err != nil {
		return nil, hashfserr.Wrap(hashfserr.StoreUnavailable, "committing delete transaction", err)
	}

	v.idx = staged
	v.chains.Forget(rec.ChainID)
	return &DeleteResult{Files: v.fileSummaries()}, nil
}

// DeleteResult is returned by Delete.
type DeleteResult struct {
	Files []FileSummary `json:"files"`
}
