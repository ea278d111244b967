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

type listCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("list", func(fs *flag.FlagSet) commandRunner {
		return &listCmd{flags: addDBFlags(fs)}
	})
}

func (c *listCmd) Usage() {
	fmt.Println("Usage: hashfs list [-db=path]")
}

func (c *listCmd) RunCommand(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("list takes no arguments")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	files, err := v.GetFiles()
	if err != nil {
		return err
	}
	printFileTable(files)
	return nil
}
