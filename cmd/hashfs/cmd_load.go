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

type loadCmd struct {
	flags    *dbFlags
	version  *int
	validate *bool
	out      *string
}

func init() {
	registerCommand("load", func(fs *flag.FlagSet) commandRunner {
		return &loadCmd{
			flags:    addDBFlags(fs),
			version:  fs.Int("version", 0, "version to load (0 = head)"),
			validate: fs.Bool("validate", false, "validate the full chain before returning"),
			out:      fs.String("out", "-", "destination file, or - for stdout"),
		}
	})
}

func (c *loadCmd) Usage() {
	fmt.Println("Usage: hashfs load [-db=path] [-version=N] [-validate] [-out=path] <name>")
}

func (c *loadCmd) RunCommand(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("load takes exactly one argument: name")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	res, err := v.Load(args[0], *c.version, *c.validate)
	if err != nil {
		return err
	}
	if res.Recovered {
		fmt.Fprintln(os.Stderr, "note: head version was unreadable; served the latest recoverable version instead")
	}
	if *c.out == "-" {
		_, err := os.Stdout.Write(res.Bytes)
		return err
	}
	return os.WriteFile(*c.out, res.Bytes, 0o600)
}
