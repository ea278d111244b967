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

package main

import (
	"flag"
	"path/filepath"
	"testing"
)

// TestOpenUnlockedAcceptsFlagOverrides exercises the CLI's jsonconfig.Obj
// construction with non-default -versionlimit/-cachesize values: both are
// parsed into Go ints by flag.Int but must reach jsonconfig.Obj as the
// float64 type jsonconfig.Obj.OptionalInt expects, or New's Validate()
// rejects them.
func TestOpenUnlockedAcceptsFlagOverrides(t *testing.T) {
	t.Setenv("HASHFS_PASSPHRASE", "correct horse battery staple")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := addDBFlags(fs)
	dbFile := filepath.Join(t.TempDir(), "vault.db")
	if err := fs.Parse([]string{"-db", dbFile, "-versionlimit", "7", "-cachesize", "3"}); err != nil {
		t.Fatal(err)
	}

	v, res, err := openUnlocked(f)
	if err != nil {
		t.Fatalf("openUnlocked: %v", err)
	}
	if v == nil || res == nil {
		t.Fatal("openUnlocked returned nil vault or result")
	}
	if len(res.Files) != 0 {
		t.Fatalf("fresh vault has %d files, want 0", len(res.Files))
	}
}
