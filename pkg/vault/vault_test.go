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
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"go4.org/jsonconfig"

	"hashfs.io/hashfs/pkg/chain"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
)

func newTestVault(t *testing.T, cfg map[string]interface{}) *Vault {
	t.Helper()
	if cfg == nil {
		cfg = map[string]interface{}{}
	}
	if _, ok := cfg["dbFile"]; !ok {
		cfg["dbFile"] = filepath.Join(t.TempDir(), "vault.db")
	}
	v, err := New(jsonconfig.Obj(cfg))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func unlock(t *testing.T, v *Vault, passphrase string) *InitResult {
	t.Helper()
	res, err := v.Init(passphrase)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestFreshVault(t *testing.T) {
	v := newTestVault(t, nil)
	res := unlock(t, v, "correct horse battery staple")
	if len(res.Files) != 0 {
		t.Fatalf("fresh vault has %d files, want 0", len(res.Files))
	}

	save, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if save.Version != 1 {
		t.Fatalf("version = %d, want 1", save.Version)
	}

	load, err := v.Load("a.txt", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(load.Bytes) != "hello" {
		t.Fatalf("got %q, want %q", load.Bytes, "hello")
	}
	if load.Version != 1 || load.AvailableVersions != (AvailableVersions{1, 1}) {
		t.Fatalf("got version=%d available=%+v", load.Version, load.AvailableVersions)
	}
}

func TestVersioning(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	save2, err := v.Save("a.txt", []byte("hello world"), "", SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if save2.Version != 2 {
		t.Fatalf("version = %d, want 2", save2.Version)
	}

	same, err := v.Save("a.txt", []byte("hello world"), "", SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !same.Unchanged {
		t.Fatal("repeat save should be unchanged")
	}

	v1, err := v.Load("a.txt", 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(v1.Bytes) != "hello" {
		t.Fatalf("version 1 = %q, want %q", v1.Bytes, "hello")
	}

	head, err := v.Load("a.txt", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(head.Bytes) != "hello world" {
		t.Fatalf("head = %q, want %q", head.Bytes, "hello world")
	}
}

func TestPruning(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	for i := 1; i <= 5; i++ {
		content := []byte{'v', byte('0' + i)}
		if _, err := v.Save("p", content, "", SaveOptions{VersionLimit: 3}); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := v.Load("p", 1, false); !hashfserr.Is(err, hashfserr.VersionNotFound) {
		t.Fatalf("load version 1 after pruning: got %v, want VersionNotFound", err)
	}

	v3, err := v.Load("p", 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if string(v3.Bytes) != "v3" {
		t.Fatalf("version 3 = %q, want %q", v3.Bytes, "v3")
	}
	if v3.AvailableVersions != (AvailableVersions{3, 5}) {
		t.Fatalf("available = %+v, want {3 5}", v3.AvailableVersions)
	}
}

func TestHeadCorruptionRecovery(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Save("a.txt", []byte("hello world"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	rec := v.idx.Files["a.txt"]
	if err := v.store.Delete(kvstore.Files, *rec.ActiveKey); err != nil {
		t.Fatal(err)
	}

	res, err := v.Load("a.txt", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Recovered {
		t.Fatal("expected Recovered to be true")
	}
	if string(res.Bytes) != "hello" {
		t.Fatalf("recovered content = %q, want %q", res.Bytes, "hello")
	}
	if v.idx.Files["a.txt"].HeadVersion != 1 {
		t.Fatalf("head_version after recovery = %d, want 1", v.idx.Files["a.txt"].HeadVersion)
	}
}

func TestTamperDetection(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	rec := v.idx.Files["a.txt"]
	raw, err := v.store.Get(kvstore.Files, *rec.ActiveKey)
	if err != nil {
		t.Fatal(err)
	}
	var blobRec chain.BlobRecord
	if err := json.Unmarshal(raw, &blobRec); err != nil {
		t.Fatal(err)
	}
	blobRec.Ciphertext[0] ^= 0xff
	tampered, err := json.Marshal(blobRec)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.store.Put(kvstore.Files, *rec.ActiveKey, tampered); err != nil {
		t.Fatal(err)
	}

	_, err = v.Load("a.txt", 0, false)
	if err == nil {
		t.Fatal("expected tamper detection to fail the load")
	}
	if !hashfserr.Is(err, hashfserr.DecryptFailure) && !hashfserr.Is(err, hashfserr.SignatureInvalid) && !hashfserr.Is(err, hashfserr.HashMismatch) {
		t.Fatalf("got %v, want DecryptFailure/SignatureInvalid/HashMismatch", err)
	}
}

func TestZipRoundTrip(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	files := map[string]struct {
		content []byte
		mime    string
	}{
		"a.txt":      {[]byte("alpha"), "text/plain"},
		"b.json":     {[]byte(`{"x":1}`), "application/json"},
		"dir/c.html": {[]byte("<p>hi</p>"), "text/html"},
	}
	for name, f := range files {
		if _, err := v.Save(name, f.content, f.mime, SaveOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	zipBytes, err := v.ExportZip(nil)
	if err != nil {
		t.Fatal(err)
	}

	// Wipe the namespace entirely and reopen a fresh vault at the same
	// passphrase.
	if err := v.store.Wipe(); err != nil {
		t.Fatal(err)
	}

	v2 := newTestVault(t, map[string]interface{}{"dbFile": v.dbFile})
	unlock(t, v2, "correct horse battery staple")

	items, err := v2.ImportZip(zipBytes, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != len(files) {
		t.Fatalf("got %d import items, want %d", len(items), len(files))
	}
	for _, item := range items {
		if _, err := v2.Save(item.Name, item.Bytes, item.Mime, SaveOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	summaries, err := v2.GetFiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(summaries) != len(files) {
		t.Fatalf("got %d files after import, want %d", len(summaries), len(files))
	}
	for name, want := range files {
		res, err := v2.Load(name, 0, false)
		if err != nil {
			t.Fatalf("loading %s: %v", name, err)
		}
		if !bytes.Equal(res.Bytes, want.content) {
			t.Fatalf("%s content = %q, want %q", name, res.Bytes, want.content)
		}
		if res.Mime != want.mime {
			t.Fatalf("%s mime = %q, want %q", name, res.Mime, want.mime)
		}
	}
}

func TestVaultIsolation(t *testing.T) {
	v := newTestVault(t, nil)
	res1 := unlock(t, v, "passphrase one")
	if _, err := v.Save("secret.txt", []byte("for vault one"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}

	v2 := newTestVault(t, map[string]interface{}{"dbFile": v.dbFile})
	res2 := unlock(t, v2, "a totally different passphrase")

	if res1.Fingerprint.Base == res2.Fingerprint.Base {
		t.Fatal("two different passphrases produced the same vault fingerprint base")
	}
	if len(res2.Files) != 0 {
		t.Fatal("second passphrase should not see the first vault's files")
	}
}

func TestIntegrityCheckRemovesOrphans(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")

	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	// Inject an orphan blob directly.
	if err := v.store.Put(kvstore.Files, "orphan-key", []byte(`{"iv":[],"ciphertext":[]}`)); err != nil {
		t.Fatal(err)
	}

	report, err := v.IntegrityCheck()
	if err != nil {
		t.Fatal(err)
	}
	if report.OrphansRemoved != 1 {
		t.Fatalf("orphansRemoved = %d, want 1", report.OrphansRemoved)
	}
	if _, err := v.store.Get(kvstore.Files, "orphan-key"); err == nil {
		t.Fatal("orphan blob should have been deleted")
	}
}

func TestRenameRejectsConflictAndEmpty(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")
	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Save("b.txt", []byte("world"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Rename("a.txt", "b.txt"); !hashfserr.Is(err, hashfserr.RenameConflict) {
		t.Fatalf("got %v, want RenameConflict", err)
	}
	if _, err := v.Rename("a.txt", ""); !hashfserr.Is(err, hashfserr.RenameInvalid) {
		t.Fatalf("got %v, want RenameInvalid", err)
	}
	if _, err := v.Rename("a.txt", "c.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Load("c.txt", 0, false); err != nil {
		t.Fatalf("renamed file not loadable: %v", err)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	v := newTestVault(t, nil)
	unlock(t, v, "correct horse battery staple")
	if _, err := v.Save("a.txt", []byte("hello"), "", SaveOptions{}); err != nil {
		t.Fatal(err)
	}
	if _, err := v.Delete("a.txt"); err != nil {
		t.Fatal(err)
	}
	// spec §4.7 load step 1: an absent record loads as empty content, not
	// an error.
	res, err := v.Load("a.txt", 0, false)
	if err != nil {
		t.Fatalf("loading deleted file: %v", err)
	}
	if len(res.Bytes) != 0 {
		t.Fatalf("got %q, want empty bytes", res.Bytes)
	}
	if res.Mime != "text/markdown" {
		t.Fatalf("got mime %q, want text/markdown", res.Mime)
	}
}

func TestInitRejectsShortPassphrase(t *testing.T) {
	v := newTestVault(t, nil)
	if _, err := v.Init("short"); !hashfserr.Is(err, hashfserr.PassphraseTooShort) {
		t.Fatalf("got %v, want PassphraseTooShort", err)
	}
}
