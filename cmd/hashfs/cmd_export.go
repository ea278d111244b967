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
)

type exportCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("export", func(fs *flag.FlagSet) commandRunner {
		return &exportCmd{flags: addDBFlags(fs)}
	})
}

func (c *exportCmd) Usage() {
	fmt.Println("Usage: hashfs export [-db=path] <output.zip>")
}

func (c *exportCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("export takes exactly one argument: output.zip")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	zipBytes, err := v.ExportZip(func(completed, total int, current string) {
		fmt.Fprintf(os.Stderr, "\rexporting %d/%d %s", completed, total, current)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}
	return os.WriteFile(args[0], zipBytes, 0o600)
}
