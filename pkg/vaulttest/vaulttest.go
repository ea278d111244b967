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

// Package vaulttest runs a scripted scenario against any *vault.Vault
// constructor, the way pkg/blobserver/storagetest and pkg/sorted/kvtest
// exercise an interface implementation rather than a single concrete type.
// It is the conformance check a new Vault construction path (a different
// dbFile location, a different versionLimit/cacheSize pairing) should be
// run through before it is trusted.
package vaulttest

import (
	"bytes"
	"fmt"
	"testing"

	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/vault"
)

const testPassphrase = "vaulttest conformance passphrase"

// New is required and must return an unopened Vault pointed at a fresh,
// empty backing store. Test calls Init itself.
type New func(*testing.T) *vault.Vault

// Test drives fn's vault through init, versioned save/load, pruning,
// rename, delete, zip export/import and integrity-check, failing t on any
// deviation from the operation surface every vault must support.
func Test(t *testing.T, fn New) {
	t.Helper()

	t.Run("FreshInit", func(t *testing.T) { testFreshInit(t, fn) })
	t.Run("SaveLoadVersions", func(t *testing.T) { testSaveLoadVersions(t, fn) })
	t.Run("Pruning", func(t *testing.T) { testPruning(t, fn) })
	t.Run("RenameDelete", func(t *testing.T) { testRenameDelete(t, fn) })
	t.Run("ZipRoundTrip", func(t *testing.T) { testZipRoundTrip(t, fn) })
	t.Run("IntegrityCheckIsClean", func(t *testing.T) { testIntegrityCheckClean(t, fn) })
}

func mustInit(t *testing.T, fn New) *vault.Vault {
	t.Helper()
	v := fn(t)
	if _, err := v.Init(testPassphrase); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return v
}

func testFreshInit(t *testing.T, fn New) {
	v := fn(t)
	res, err := v.Init(testPassphrase)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("fresh init reports %d files, want 0", len(res.Files))
	}
	if res.Fingerprint.Base == "" || res.Fingerprint.Session == "" {
		t.Error("fresh init did not populate a fingerprint")
	}
}

func testSaveLoadVersions(t *testing.T, fn New) {
	v := mustInit(t, fn)

	for i, content := range []string{"v1", "v1v2", "v1v2v3"} {
		res, err := v.Save("doc.md", []byte(content), "text/markdown", vault.SaveOptions{})
		if err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
		if res.Version != i+1 {
			t.Fatalf("Save #%d version = %d, want %d", i, res.Version, i+1)
		}
	}

	repeat, err := v.Save("doc.md", []byte("v1v2v3"), "text/markdown", vault.SaveOptions{})
	if err != nil {
		t.Fatalf("repeat save: %v", err)
	}
	if !repeat.Unchanged {
		t.Error("saving identical content again should report Unchanged")
	}

	for version, want := range map[int]string{1: "v1", 2: "v1v2", 3: "v1v2v3"} {
		res, err := v.Load("doc.md", version, true)
		if err != nil {
			t.Fatalf("Load version %d: %v", version, err)
		}
		if !bytes.Equal(res.Bytes, []byte(want)) {
			t.Fatalf("Load version %d = %q, want %q", version, res.Bytes, want)
		}
	}

	head, err := v.Load("doc.md", 0, false)
	if err != nil {
		t.Fatalf("Load head: %v", err)
	}
	if head.Version != 3 || head.CurrentVersion != 3 {
		t.Errorf("head version=%d currentVersion=%d, want 3/3", head.Version, head.CurrentVersion)
	}
}

func testPruning(t *testing.T, fn New) {
	v := mustInit(t, fn)

	const limit = 2
	for i := 1; i <= 4; i++ {
		if _, err := v.Save("log", []byte(fmt.Sprintf("entry-%d", i)), "", vault.SaveOptions{VersionLimit: limit}); err != nil {
			t.Fatalf("Save #%d: %v", i, err)
		}
	}

	if _, err := v.Load("log", 1, false); !hashfserr.Is(err, hashfserr.VersionNotFound) {
		t.Fatalf("Load pruned version 1: got %v, want VersionNotFound", err)
	}

	res, err := v.Load("log", 0, false)
	if err != nil {
		t.Fatalf("Load head: %v", err)
	}
	if string(res.Bytes) != "entry-4" {
		t.Fatalf("head content = %q, want entry-4", res.Bytes)
	}
	if res.AvailableVersions.Min != 3 || res.AvailableVersions.Max != 4 {
		t.Fatalf("availableVersions = %+v, want {3 4}", res.AvailableVersions)
	}
}

func testRenameDelete(t *testing.T, fn New) {
	v := mustInit(t, fn)

	if _, err := v.Save("a.txt", []byte("a"), "", vault.SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := v.Rename("a.txt", "b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	// spec §4.7 load step 1: an absent record loads as empty content, not
	// an error — the old name now resolves to nothing.
	if res, err := v.Load("a.txt", 0, false); err != nil || len(res.Bytes) != 0 {
		t.Fatalf("Load old name after rename: got (%v, %v), want empty bytes, nil", res, err)
	}
	if _, err := v.Load("b.txt", 0, false); err != nil {
		t.Fatalf("Load new name after rename: %v", err)
	}
	if _, err := v.Delete("b.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res, err := v.Load("b.txt", 0, false); err != nil || len(res.Bytes) != 0 {
		t.Fatalf("Load deleted file: got (%v, %v), want empty bytes, nil", res, err)
	}
}

func testZipRoundTrip(t *testing.T, fn New) {
	v := mustInit(t, fn)

	want := map[string]string{"one.txt": "one", "nested/two.txt": "two"}
	for name, content := range want {
		if _, err := v.Save(name, []byte(content), "", vault.SaveOptions{}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	archive, err := v.ExportZip(nil)
	if err != nil {
		t.Fatalf("ExportZip: %v", err)
	}

	v2 := mustInit(t, fn)
	items, err := v2.ImportZip(archive, nil)
	if err != nil {
		t.Fatalf("ImportZip: %v", err)
	}
	if len(items) != len(want) {
		t.Fatalf("ImportZip returned %d items, want %d", len(items), len(want))
	}
	for _, item := range items {
		if _, err := v2.Save(item.Name, item.Bytes, item.Mime, vault.SaveOptions{}); err != nil {
			t.Fatalf("Save imported %s: %v", item.Name, err)
		}
		wantContent, ok := want[item.Name]
		if !ok {
			t.Fatalf("unexpected imported name %q", item.Name)
		}
		if !bytes.Equal(item.Bytes, []byte(wantContent)) {
			t.Fatalf("imported %s = %q, want %q", item.Name, item.Bytes, wantContent)
		}
	}
}

func testIntegrityCheckClean(t *testing.T, fn New) {
	v := mustInit(t, fn)

	for i := 0; i < 3; i++ {
		if _, err := v.Save(fmt.Sprintf("f%d", i), []byte("content"), "", vault.SaveOptions{}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	report, err := v.IntegrityCheck()
	if err != nil {
		t.Fatalf("IntegrityCheck: %v", err)
	}
	if len(report.Issues) != 0 || report.FilesRemoved != 0 || report.OrphansRemoved != 0 {
		t.Fatalf("IntegrityCheck on a clean vault reported %+v, want all zero", report)
	}
}
