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
	"sort"

	"hashfs.io/hashfs/pkg/codec"
	"hashfs.io/hashfs/pkg/hashfserr"
)

// sidecarName is the fixed path of the MIME-map entry every export
// carries alongside the file contents, per spec §6.
const sidecarName = ".hashfs_meta.json"

// defaultImportMime is assigned to an imported item with no known MIME.
const defaultImportMime = "application/octet-stream"

type sidecar struct {
	Mimes map[string]string `json:"mimes"`
}

// ExportZip packs every file with live content into a ZIP archive, plus
// a .hashfs_meta.json sidecar carrying each file's MIME type.
func (v *Vault) ExportZip(progress ProgressFunc) ([]byte, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(v.idx.Files))
	for name, rec := range v.idx.Files {
		if rec.ActiveKey != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	entries := make(map[string][]byte, len(names)+1)
	mimes := make(map[string]string, len(names))
	total := len(names)
	for i, name := range names {
		report(progress, i, total, name)
		res, err := v.Load(name, 0, false)
		if err != nil {
			return nil, err
		}
		entries[name] = res.Bytes
		mimes[name] = res.Mime
	}
	report(progress, total, total, "")

	sidecarBytes, err := json.Marshal(sidecar{Mimes: mimes})
	if err != nil {
		return nil, err
	}
	entries[sidecarName] = sidecarBytes

	return codec.ZipPack(entries)
}

// ImportZip unpacks zipBytes and yields one ImportItem per non-sidecar
// entry, ready for the host to hand to Save. It never calls Save itself:
// the host drives the normal write pipeline so deduplication by content
// hash still applies.
func (v *Vault) ImportZip(zipBytes []byte, progress ProgressFunc) ([]ImportItem, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	entries, err := codec.ZipUnpack(zipBytes)
	if err != nil {
		return nil, hashfserr.Wrap(hashfserr.FileCorrupt, "unpacking zip archive", err)
	}

	mimes := map[string]string{}
	if raw, ok := entries[sidecarName]; ok {
		var sc sidecar
		if err := json.Unmarshal(raw, &sc); err == nil {
			mimes = sc.Mimes
		}
		delete(entries, sidecarName)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	items := make([]ImportItem, 0, len(names))
	total := len(names)
	for i, name := range names {
		report(progress, i, total, name)
		mime := mimes[name]
		if mime == "" {
			mime = defaultImportMime
		}
		items = append(items, ImportItem{Name: name, Success: true, Mime: mime, Bytes: entries[name]})
	}
	report(progress, total, total, "")
	return items, nil
}

// ImportFiles is ImportZip without a sidecar: each item's own type, or
// defaultImportMime, supplies its MIME.
func (v *Vault) ImportFiles(items []ImportFileItem, progress ProgressFunc) ([]ImportItem, error) {
	if err := v.requireUnlocked(); err != nil {
		return nil, err
	}
	out := make([]ImportItem, 0, len(items))
	total := len(items)
	for i, item := range items {
		report(progress, i, total, item.Name)
		mime := item.Type
		if mime == "" {
			mime = defaultImportMime
		}
		out = append(out, ImportItem{Name: item.Name, Success: true, Mime: mime, Bytes: item.Bytes})
	}
	report(progress, total, total, "")
	return out, nil
}

func report(progress ProgressFunc, completed, total int, current string) {
	if progress != nil {
		progress(completed, total, current)
	}
}
