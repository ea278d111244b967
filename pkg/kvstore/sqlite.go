/*
Copyright 2012 The Camlistore Authors.

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
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

const requiredSchemaVersion = 1

// sqlCreateTables mirrors the teacher's sqlite.SQLCreateTables shape: one
// row table plus a small schema-version meta table. Here the row table
// additionally carries a collection column, since one physical file
// backs all four of a vault's logical collections (files/meta/chains/
// integrity), not just one.
func sqlCreateTables() []string {
	return []string{
		`CREATE TABLE rows (
 collection VARCHAR(32) NOT NULL,
 k VARCHAR(512) NOT NULL,
 v BLOB,
 PRIMARY KEY(collection, k))`,

		`CREATE TABLE meta (
 metakey VARCHAR(255) NOT NULL PRIMARY KEY,
 value VARCHAR(255) NOT NULL)`,
	}
}

// SQLiteStore is a Store backed by a single sqlite database file,
// transactionally holding all four collections of one vault namespace.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens (creating if necessary) the sqlite-backed store at
// path. If the file is absent or empty, it is initialized from scratch,
// mirroring the teacher's sqlite.newKeyValueFromConfig auto-init path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := ensureInitialized(path); err != nil {
		return nil, fmt.Errorf("kvstore: could not initialize sqlite DB at %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{path: path, db: db}
	version, err := s.schemaVersion()
	if err != nil {
		return nil, fmt.Errorf("kvstore: error getting schema version: %w", err)
	}
	if version != requiredSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("kvstore: database schema version is %d; expect %d", version, requiredSchemaVersion)
	}
	return s, nil
}

func ensureInitialized(path string) error {
	fi, err := os.Stat(path)
	if err == nil && fi.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	for _, stmt := range sqlCreateTables() {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err = db.Exec(`REPLACE INTO meta (metakey, value) VALUES ('version', ?)`, requiredSchemaVersion)
	return err
}

func (s *SQLiteStore) schemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT value FROM meta WHERE metakey = 'version'`).Scan(&v)
	return v, err
}

func (s *SQLiteStore) Get(collection, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT v FROM rows WHERE collection = ? AND k = ?`, collection, key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *SQLiteStore) Put(collection, key string, value []byte) error {
	_, err := s.db.Exec(`REPLACE INTO rows (collection, k, v) VALUES (?, ?, ?)`, collection, key, value)
	return err
}

func (s *SQLiteStore) Delete(collection, key string) error {
	_, err := s.db.Exec(`DELETE FROM rows WHERE collection = ? AND k = ?`, collection, key)
	return err
}

func (s *SQLiteStore) ListKeys(collection string) ([]string, error) {
	rows, err := s.db.Query(`SELECT k FROM rows WHERE collection = ?`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) BeginTxn() (Txn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &sqlTxn{tx: tx}, nil
}

// Ping writes a marker to the files collection, reads it back, and
// deletes it -- the health probe spec §4.4 requires. Any deviation
// surfaces as an error so the engine can trigger recovery.
func (s *SQLiteStore) Ping() error {
	const key = "__hashfs_health_probe__"
	marker := []byte("ok")
	if err := s.Put(Files, key, marker); err != nil {
		return fmt.Errorf("kvstore: health probe write failed: %w", err)
	}
	got, err := s.Get(Files, key)
	if err != nil {
		return fmt.Errorf("kvstore: health probe read failed: %w", err)
	}
	if string(got) != string(marker) {
		return fmt.Errorf("kvstore: health probe read back %q, wrote %q", got, marker)
	}
	if err := s.Delete(Files, key); err != nil {
		return fmt.Errorf("kvstore: health probe cleanup failed: %w", err)
	}
	return nil
}

// Wipe drops and recreates the namespace empty, the "database recovery"
// path of spec §4.4.
func (s *SQLiteStore) Wipe() error {
	if _, err := s.db.Exec(`DELETE FROM rows`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type sqlTxn struct {
	tx  *sql.Tx
	err error // sticky, set by the first failing Put/Delete
}

func (t *sqlTxn) Put(collection, key string, value []byte) {
	if t.err != nil {
		return
	}
	_, t.err = t.tx.Exec(`REPLACE INTO rows (collection, k, v) VALUES (?, ?, ?)`, collection, key, value)
}

func (t *sqlTxn) Delete(collection, key string) {
	if t.err != nil {
		return
	}
	_, t.err = t.tx.Exec(`DELETE FROM rows WHERE collection = ? AND k = ?`, collection, key)
}

func (t *sqlTxn) Commit() error {
	if t.err != nil {
		t.tx.Rollback()
		return t.err
	}
	return t.tx.Commit()
}

func (t *sqlTxn) Rollback() error {
	return t.tx.Rollback()
}
