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
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/metaindex"
)

// RenameResult is returned by Rename.
type RenameResult struct {
	Files []FileSummary `json:"files"`
}

// Rename moves the record at oldName to newName, keeping its chain_id
// and full history. Open question #2 (spec §9) resolves in favor of the
// source behavior: last_modified is carried over as-is, not refreshed.
func (v *Vault) Rename(oldName, newName string) (*RenameResult, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	if oldName == "" || newName == "" {
		return nil, hashfserr.New(hashfserr.RenameInvalid, "old and new names must both be non-empty")
	}
	rec, ok := v.idx.Files[oldName]
	if !ok {
		return nil, hashfserr.New(hashfserr.RenameInvalid, "source file does not exist").WithFile(oldName)
	}
	if _, exists := v.idx.Files[newName]; exists {
		return nil, hashfserr.New(hashfserr.RenameConflict, "target file already exists").WithFile(newName)
	}

	staged := metaindex.Clone(v.idx)
	delete(staged.Files, oldName)
	staged.Files[newName] = rec
	if err := metaindex.Save(v.store, v.keys, staged); err != nil {
		return nil, err
	}
	v.idx = staged

	return &RenameResult{Files: v.fileSummaries()}, nil
}
