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

	"hashfs.io/hashfs/pkg/vault"
)

type importCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("import", func(fs *flag.FlagSet) commandRunner {
		return &importCmd{flags: addDBFlags(fs)}
	})
}

func (c *importCmd) Usage() {
	fmt.Println("Usage: hashfs import [-db=path] <input.zip>")
	fmt.Println("Unpacks input.zip and saves every entry as a new version.")
}

func (c *importCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("import takes exactly one argument: input.zip")
	}
	zipBytes, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	items, err := v.ImportZip(zipBytes, func(completed, total int, current string) {
		fmt.Fprintf(os.Stderr, "\runpacking %d/%d %s", completed, total, current)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := v.Save(item.Name, item.Bytes, item.Mime, vault.SaveOptions{}); err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", item.Name, err)
			continue
		}
		fmt.Printf("imported %s\n", item.Name)
	}
	return nil
}
