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

// Package kvstore provides a namespaced, transactional key-value store
// for one vault: four collections (files, meta, chains, integrity)
// sharing one physical backing store, with atomic multi-key, multi-
// collection transactions and a health probe (spec §4.4).
package kvstore

import "errors"

// Collection names. These are the only four collections a vault uses.
const (
	Files     = "files"
	Meta      = "meta"
	Chains    = "chains"
	Integrity = "integrity"
)

// ErrNotFound is returned by Get when the collection/key pair is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a namespaced, transactional blob store.
type Store interface {
	// Get returns the value stored at (collection, key), or ErrNotFound.
	Get(collection, key string) ([]byte, error)

	// Put writes value at (collection, key), outside of any transaction.
	Put(collection, key string, value []byte) error

	// Delete removes (collection, key). Deleting an absent key is not an
	// error.
	Delete(collection, key string) error

	// ListKeys returns every key currently present in collection, in no
	// particular order. Used by the orphan scan.
	ListKeys(collection string) ([]string, error)

	// BeginTxn starts a transaction that can span any subset of the four
	// collections. Nothing is visible to other callers until Commit.
	BeginTxn() (Txn, error)

	// Ping performs the store's health probe: write a marker, read it
	// back, delete it. Any deviation is a signal to recreate the
	// namespace.
	Ping() error

	// Wipe drops and recreates the entire namespace, empty.
	Wipe() error

	// Close releases the underlying handle.
	Close() error
}

// Txn is an atomic multi-key, multi-collection mutation: either every Put
// and Delete in the transaction is visible after Commit, or (on Commit
// error, or if Rollback is called) none of them are.
type Txn interface {
	Put(collection, key string, value []byte)
	Delete(collection, key string)
	Commit() error
	Rollback() error
}
