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
	"fmt"
	"sort"

	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/metaindex"
)

// IntegrityCheck validates every file's chain in full, removes files
// whose entire history is unrecoverable, and then sweeps the files
// collection for blobs no surviving chain or active_key references
// (spec §4.7 integrity-check).
func (v *Vault) IntegrityCheck() (*IntegrityReport, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	report := &IntegrityReport{}
	staged := metaindex.Clone(v.idx)

	names := make([]string, 0, len(staged.Files))
	for name := range staged.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	referenced := make(map[string]bool)
	for _, name := range names {
		rec := staged.Files[name]
		if err := v.chains.Validate(rec.ChainID); err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: %v", name, err))
			delete(staged.Files, name)
			report.FilesRemoved++
			continue
		}
		c, err := v.chains.Load(rec.ChainID)
		if err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: %v", name, err))
			delete(staged.Files, name)
			report.FilesRemoved++
			continue
		}
		for _, e := range c.Versions {
			referenced[e.Key] = true
		}
		if rec.ActiveKey != nil {
			referenced[*rec.ActiveKey] = true
		}
	}

	if report.FilesRemoved > 0 {
		if err := metaindex.Save(v.store, v.keys, staged); err != nil {
			return nil, err
		}
		v.idx = staged
	}

	allKeys, err := v.store.ListKeys(kvstore.Files)
	if err != nil {
		return nil, err
	}
	for _, key := range allKeys {
		if referenced[key] {
			continue
		}
		if err := v.store.Delete(kvstore.Files, key); err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("orphan %s: %v", key, err))
			continue
		}
		report.OrphansRemoved++
	}

	return report, nil
}
