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

type saveCmd struct {
	flags *dbFlags
	mime  *string
}

func init() {
	registerCommand("save", func(fs *flag.FlagSet) commandRunner {
		return &saveCmd{
			flags: addDBFlags(fs),
			mime:  fs.String("mime", "", "MIME type to record (defaults to the file's current MIME, or text/markdown for a new file)"),
		}
	})
}

func (c *saveCmd) Usage() {
	fmt.Println("Usage: hashfs save [-db=path] [-mime=type] <name> <localfile>")
	fmt.Println("Reads localfile and stores it as name's next version.")
}

func (c *saveCmd) RunCommand(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("save takes exactly two arguments: name and localfile")
	}
	name, path := args[0], args[1]
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	res, err := v.Save(name, content, *c.mime, vault.SaveOptions{})
	if err != nil {
		return err
	}
	if res.Unchanged {
		fmt.Println("unchanged")
		return nil
	}
	fmt.Printf("saved %s as version %d\n", name, res.Version)
	return nil
}
