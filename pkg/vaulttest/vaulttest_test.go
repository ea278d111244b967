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

package vaulttest

import (
	"path/filepath"
	"testing"

	"go4.org/jsonconfig"

	"hashfs.io/hashfs/pkg/vault"
)

func TestSQLiteBackedVault(t *testing.T) {
	Test(t, func(t *testing.T) *vault.Vault {
		dbFile := filepath.Join(t.TempDir(), "vault.db")
		v, err := vault.New(jsonconfig.Obj{"dbFile": dbFile})
		if err != nil {
			t.Fatalf("vault.New: %v", err)
		}
		return v
	})
}
