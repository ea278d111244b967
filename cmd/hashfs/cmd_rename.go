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

type renameCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("rename", func(fs *flag.FlagSet) commandRunner {
		return &renameCmd{flags: addDBFlags(fs)}
	})
}

func (c *renameCmd) Usage() {
	fmt.Println("Usage: hashfs rename [-db=path] <oldname> <newname>")
}

func (c *renameCmd) RunCommand(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("rename takes exactly two arguments: oldname and newname")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	res, err := v.Rename(args[0], args[1])
	if err != nil {
		return err
	}
	printFileTable(res.Files)
	return nil
}
