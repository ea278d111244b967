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

type integrityCmd struct {
	flags *dbFlags
}

func init() {
	registerCommand("integrity", func(fs *flag.FlagSet) commandRunner {
		return &integrityCmd{flags: addDBFlags(fs)}
	})
}

func (c *integrityCmd) Usage() {
	fmt.Println("Usage: hashfs integrity [-db=path]")
	fmt.Println("Validates every file's chain and sweeps unreferenced blobs.")
}

func (c *integrityCmd) RunCommand(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("integrity takes no arguments")
	}
	v, _, err := openUnlocked(c.flags)
	if err != nil {
		return err
	}
	report, err := v.IntegrityCheck()
	if err != nil {
		return err
	}
	for _, issue := range report.Issues {
		fmt.Println("issue:", issue)
	}
	fmt.Printf("files removed: %d, orphan blobs removed: %d\n", report.FilesRemoved, report.OrphansRemoved)
	return nil
}
