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

package chain

import (
	"encoding/json"
	"testing"

	"hashfs.io/hashfs/pkg/codec"
	"hashfs.io/hashfs/pkg/hashfserr"
	"hashfs.io/hashfs/pkg/kvstore"
	"hashfs.io/hashfs/pkg/vaultcrypto"
)

func testKeys(t *testing.T) *vaultcrypto.Keys {
	t.Helper()
	keys, err := vaultcrypto.DeriveKeys("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	return keys
}

func putVersion(t *testing.T, store kvstore.Store, keys *vaultcrypto.Keys, key string, plaintext []byte) VersionEntry {
	t.Helper()
	compressed, err := codec.Compress(plaintext)
	if err != nil {
		t.Fatal(err)
	}
	sealed, err := vaultcrypto.Encrypt(keys.EncKey, compressed)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(BlobRecord{IV: sealed.IV, Ciphertext: sealed.Ciphertext})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(kvstore.Files, key, raw); err != nil {
		t.Fatal(err)
	}
	hashHex := vaultcrypto.ContentHash(plaintext)
	return VersionEntry{
		Hash: hashHex,
		Sig:  vaultcrypto.Sign(keys.SigKey, hashHex),
		Key:  key,
		Size: len(plaintext),
	}
}

func TestLoadMissingChainIsEmpty(t *testing.T) {
	m := NewManager(kvstore.NewMem(), testKeys(t), 0)
	c, err := m.Load("nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Versions) != 0 || c.Pruned.Count != 0 {
		t.Fatalf("got %+v, want empty chain", c)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	keys := testKeys(t)
	m := NewManager(kvstore.NewMem(), keys, 0)

	v1 := putVersion(t, m.store, keys, "blob-1", []byte("hello"))
	v1.Version = 1
	c := Empty()
	c.Versions = append(c.Versions, v1)

	if err := m.Save("chain-a", c); err != nil {
		t.Fatal(err)
	}

	// Force a reload from the store, bypassing the cache, to exercise
	// decrypt+verify.
	m.cache.Remove("chain-a")
	got, err := m.Load("chain-a")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Versions) != 1 || got.Versions[0].Key != "blob-1" {
		t.Fatalf("got %+v", got)
	}
	if got.ChainHash == "" || got.ChainSig == "" {
		t.Fatal("expected chain_hash/chain_sig to be populated on save")
	}
}

func TestAppendPrunesToVersionLimit(t *testing.T) {
	keys := testKeys(t)
	store := kvstore.NewMem()
	m := NewManager(store, keys, 0)

	const limit = 3
	var lastDropped []string
	for i := 1; i <= 5; i++ {
		entry := putVersion(t, store, keys, "blob-"+string(rune('0'+i)), []byte{byte(i)})
		entry.Version = i
		_, dropped, err := m.Append("chain-b", entry, limit)
		if err != nil {
			t.Fatal(err)
		}
		lastDropped = dropped
	}
	c, err := m.Load("chain-b")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Versions) != limit {
		t.Fatalf("got %d retained versions, want %d", len(c.Versions), limit)
	}
	if c.Versions[0].Version != 3 {
		t.Fatalf("oldest retained version = %d, want 3", c.Versions[0].Version)
	}
	if c.Pruned.Count != 2 {
		t.Fatalf("pruned.count = %d, want 2", c.Pruned.Count)
	}
	if c.Pruned.OldestKept != 3 {
		t.Fatalf("pruned.oldestKept = %d, want 3", c.Pruned.OldestKept)
	}
	if len(lastDropped) != 1 {
		t.Fatalf("last append should drop exactly 1 blob key, got %v", lastDropped)
	}
}

func TestValidateDetectsTamperedBlob(t *testing.T) {
	keys := testKeys(t)
	store := kvstore.NewMem()
	m := NewManager(store, keys, 0)

	entry := putVersion(t, store, keys, "blob-x", []byte("original"))
	entry.Version = 1
	if _, _, err := m.Append("chain-c", entry, 15); err != nil {
		t.Fatal(err)
	}

	// Tamper with the stored ciphertext directly.
	raw, err := store.Get(kvstore.Files, "blob-x")
	if err != nil {
		t.Fatal(err)
	}
	var rec BlobRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatal(err)
	}
	rec.Ciphertext[0] ^= 0xff
	tampered, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(kvstore.Files, "blob-x", tampered); err != nil {
		t.Fatal(err)
	}

	err = m.Validate("chain-c")
	if err == nil {
		t.Fatal("expected Validate to detect tampering")
	}
	if !hashfserr.Is(err, hashfserr.ChainCorrupt) {
		t.Fatalf("got %v, want ChainCorrupt", err)
	}
}

func TestLoadRejectsChainWithoutSignature(t *testing.T) {
	keys := testKeys(t)
	store := kvstore.NewMem()
	m := NewManager(store, keys, 0)

	raw, err := json.Marshal(record{IV: []byte("x"), Ciphertext: []byte("y"), Sig: ""})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(kvstore.Chains, "chain-d", raw); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Load("chain-d"); !hashfserr.Is(err, hashfserr.ChainCorrupt) {
		t.Fatalf("got %v, want ChainCorrupt", err)
	}
}
