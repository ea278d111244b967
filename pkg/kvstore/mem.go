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
	"sync"
)

// memKey is the composite key a MemStore indexes by.
type memKey struct {
	collection, key string
}

// MemStore is an in-memory Store, used by tests that should never touch
// disk.
type MemStore struct {
	mu   sync.Mutex
	rows map[memKey][]byte
}

// NewMem returns an empty in-memory Store.
func NewMem() *MemStore {
	return &MemStore{rows: make(map[memKey][]byte)}
}

func (m *MemStore) Get(collection, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[memKey{collection, key}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *MemStore) Put(collection, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.rows[memKey{collection, key}] = cp
	return nil
}

func (m *MemStore) Delete(collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, memKey{collection, key})
	return nil
}

func (m *MemStore) ListKeys(collection string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.rows {
		if k.collection == collection {
			keys = append(keys, k.key)
		}
	}
	return keys, nil
}

func (m *MemStore) BeginTxn() (Txn, error) {
	return &memTxn{store: m}, nil
}

func (m *MemStore) Ping() error {
	const key = "__hashfs_health_probe__"
	if err := m.Put(Files, key, []byte("ok")); err != nil {
		return err
	}
	got, err := m.Get(Files, key)
	if err != nil {
		return err
	}
	if string(got) != "ok" {
		return errors.New("kvstore: health probe read back wrong value")
	}
	return m.Delete(Files, key)
}

func (m *MemStore) Wipe() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = make(map[memKey][]byte)
	return nil
}

func (m *MemStore) Close() error { return nil }

// memTxn buffers writes and applies them all at once on Commit, the
// in-memory equivalent of the sqlite backend's single underlying
// *sql.Tx: nothing is visible to other callers of the same MemStore
// until Commit runs.
type memTxn struct {
	store  *MemStore
	puts   []memPut
	dels   []memKey
}

type memPut struct {
	key   memKey
	value []byte
}

func (t *memTxn) Put(collection, key string, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	t.puts = append(t.puts, memPut{memKey{collection, key}, cp})
}

func (t *memTxn) Delete(collection, key string) {
	t.dels = append(t.dels, memKey{collection, key})
}

func (t *memTxn) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, p := range t.puts {
		t.store.rows[p.key] = p.value
	}
	for _, k := range t.dels {
		delete(t.store.rows, k)
	}
	return nil
}

func (t *memTxn) Rollback() error {
	t.puts = nil
	t.dels = nil
	return nil
}
