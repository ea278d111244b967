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

package kvstore

import (
	"errors"
	"path/filepath"
	"testing"
)

// testStores runs every conformance case against both backends, the way
// the teacher's kvtest suite is run against each sorted.KeyValue impl.
func testStores(t *testing.T) map[string]Store {
	dir := t.TempDir()
	sqlite, err := OpenSQLite(filepath.Join(dir, "vault.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"mem":    NewMem(),
		"sqlite": sqlite,
	}
}

func TestGetPutDelete(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(Files, "nope"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get on empty store: got %v, want ErrNotFound", err)
			}
			if err := s.Put(Files, "a", []byte("hello")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(Files, "a")
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "hello" {
				t.Fatalf("got %q, want %q", got, "hello")
			}
			if err := s.Delete(Files, "a"); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(Files, "a"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get after Delete: got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(Files, "k", []byte("files-value")); err != nil {
				t.Fatal(err)
			}
			if err := s.Put(Meta, "k", []byte("meta-value")); err != nil {
				t.Fatal(err)
			}
			got, err := s.Get(Chains, "k")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("Chains/k: got (%q, %v), want ErrNotFound", got, err)
			}
			fv, _ := s.Get(Files, "k")
			mv, _ := s.Get(Meta, "k")
			if string(fv) != "files-value" || string(mv) != "meta-value" {
				t.Fatalf("collections leaked into each other: files=%q meta=%q", fv, mv)
			}
		})
	}
}

func TestListKeys(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			want := []string{"one", "two", "three"}
			for _, k := range want {
				if err := s.Put(Chains, k, []byte(k)); err != nil {
					t.Fatal(err)
				}
			}
			keys, err := s.ListKeys(Chains)
			if err != nil {
				t.Fatal(err)
			}
			if len(keys) != len(want) {
				t.Fatalf("got %d keys, want %d", len(keys), len(want))
			}
			seen := make(map[string]bool)
			for _, k := range keys {
				seen[k] = true
			}
			for _, w := range want {
				if !seen[w] {
					t.Fatalf("missing key %q in ListKeys result %v", w, keys)
				}
			}
		})
	}
}

func TestTxnAtomicAcrossCollections(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			txn, err := s.BeginTxn()
			if err != nil {
				t.Fatal(err)
			}
			txn.Put(Files, "f1", []byte("file"))
			txn.Put(Meta, "f1", []byte("meta"))
			txn.Put(Chains, "f1", []byte("chain"))
			if err := txn.Commit(); err != nil {
				t.Fatal(err)
			}
			for _, c := range []string{Files, Meta, Chains} {
				if _, err := s.Get(c, "f1"); err != nil {
					t.Fatalf("collection %s: %v", c, err)
				}
			}
		})
	}
}

func TestTxnRollbackLeavesNoTrace(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			txn, err := s.BeginTxn()
			if err != nil {
				t.Fatal(err)
			}
			txn.Put(Files, "never", []byte("committed"))
			if err := txn.Rollback(); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(Files, "never"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("rolled-back txn visible: got err=%v", err)
			}
		})
	}
}

func TestPing(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Ping(); err != nil {
				t.Fatalf("Ping: %v", err)
			}
		})
	}
}

func TestWipeClearsAllCollections(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			s.Put(Files, "a", []byte("1"))
			s.Put(Meta, "b", []byte("2"))
			if err := s.Wipe(); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(Files, "a"); !errors.Is(err, ErrNotFound) {
				t.Fatal("Files/a survived Wipe")
			}
			if _, err := s.Get(Meta, "b"); !errors.Is(err, ErrNotFound) {
				t.Fatal("Meta/b survived Wipe")
			}
			// Store must remain usable after Wipe.
			if err := s.Put(Files, "c", []byte("3")); err != nil {
				t.Fatalf("Put after Wipe: %v", err)
			}
		})
	}
}

func TestSQLiteRejectsWrongSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.Exec(`UPDATE meta SET value = '999' WHERE metakey = 'version'`); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := OpenSQLite(path); err == nil {
		t.Fatal("OpenSQLite with mismatched schema version: got nil error, want one")
	}
}
