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
	"fmt"
	"os"

	"golang.org/x/term"

	"go4.org/jsonconfig"

	"hashfs.io/hashfs/pkg/vault"
)

// passphraseEnvVar lets scripted use (and CI) avoid an interactive
// prompt; when it is set and non-empty it is used even if a terminal is
// available.
const passphraseEnvVar = "HASHFS_PASSPHRASE"

// dbFlags are the -db/-versionlimit/-cachesize flags every subcommand
// that opens a vault accepts.
type dbFlags struct {
	db           *string
	versionLimit *int
	cacheSize    *int
}

func addDBFlags(fs *flag.FlagSet) *dbFlags {
	return &dbFlags{
		db:           fs.String("db", "hashfs.db", "path to the vault's backing sqlite file"),
		versionLimit: fs.Int("versionlimit", vault.DefaultVersionLimit, "maximum versions retained per file"),
		cacheSize:    fs.Int("cachesize", vault.DefaultCacheSize, "chain cache capacity"),
	}
}

// openUnlocked constructs a Vault from f and unlocks it with the
// passphrase read from HASHFS_PASSPHRASE or, failing that, an
// interactive prompt on the controlling terminal.
func openUnlocked(f *dbFlags) (*vault.Vault, *vault.InitResult, error) {
	v, err := vault.New(jsonconfig.Obj{
		"dbFile": *f.db,
		// jsonconfig.Obj.OptionalInt expects the JSON-decoded numeric type
		// (float64), since Obj is normally produced by json.Unmarshal into
		// map[string]interface{}; a bare Go int fails its type assertion.
		"versionLimit": float64(*f.versionLimit),
		"cacheSize":    float64(*f.cacheSize),
	})
	if err != nil {
		return nil, nil, err
	}
	passphrase, err := readPassphrase()
	if err != nil {
		return nil, nil, err
	}
	res, err := v.Init(passphrase)
	if err != nil {
		return nil, nil, err
	}
	return v, res, nil
}

func readPassphrase() (string, error) {
	if p := os.Getenv(passphraseEnvVar); p != "" {
		return p, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no %s set and stdin is not a terminal", passphraseEnvVar)
	}
	fmt.Fprint(os.Stderr, "vault passphrase: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
