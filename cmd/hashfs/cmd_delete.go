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

type deleteCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("delete", func(fs *flag.FlagSet) commandRunner {
		return &deleteCmd{flags: addDBFlags(fs)}
	})
}

func (c *deleteCmd) Usage() {
	fmt.Println("Usage: hashfs delete [-db=path] <name>")
}

func (c *deleteCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete takes exactly one argument: name")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	res, err := v.Delete(args[0])
	if err != nil {
		return err
	}
	printFileTable(res.Files)
	return nil
}
