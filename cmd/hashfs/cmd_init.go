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
)

type initCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("init", func(fs *flag.FlagSet) commandRunner {
		return &initCmd{flags: addDBFlags(fs)}
	})
}

func (c *initCmd) Usage() {
	fmt.Println("Usage: hashfs init [-db=path]")
	fmt.Println("Unlocks (creating if absent) the vault, printing its fingerprint and file list.")
}

func (c *initCmd) RunCommand(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("init takes no arguments")
	}
	_, res, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	fmt.Printf("fingerprint: base=%s session=%s\n", res.Fingerprint.Base, res.Fingerprint.Session)
	if res.Recovery != nil {
		fmt.Printf("recovery: %s\n", res.Recovery.Reason)
	}
	printFileTable(res.Files)
	return nil
}
