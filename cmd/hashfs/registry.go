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
	"sort"
)

// commandRunner is the type every subcommand implements, the same shape
// as Perkeep's cmdmain.CommandRunner.
type commandRunner interface {
	Usage()
	RunCommand(args []string) error
}

var (
	modeCommand = make(map[string]commandRunner)
	modeFlags   = make(map[string]*flag.FlagSet)
)

// registerCommand adds a mode to the dispatch table. It is meant to be
// called from each subcommand's init().
func registerCommand(mode string, makeCmd func(flags *flag.FlagSet) commandRunner) {
	if _, dup := modeCommand[mode]; dup {
		panic("duplicate command " + mode + " registered")
	}
	flags := flag.NewFlagSet(mode, flag.ContinueOnError)
	modeFlags[mode] = flags
	modeCommand[mode] = makeCmd(flags)
}

func usage(msg string) {
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	fmt.Fprintln(os.Stderr, "Usage: hashfs [globalopts] <mode> [commandopts] [commandargs]")
	var modes []string
	for mode := range modeCommand {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	fmt.Fprintln(os.Stderr, "\nModes:")
	for _, mode := range modes {
		fmt.Fprintf(os.Stderr, "  %s\n", mode)
	}
	os.Exit(1)
}

func mainImpl() error {
	args := os.Args[1:]
	if len(args) == 0 {
		usage("")
	}
	mode := args[0]
	cmd, ok := modeCommand[mode]
	if !ok {
		usage(fmt.Sprintf("Unknown mode %q", mode))
	}
	flags := modeFlags[mode]
	flags.Usage = cmd.Usage
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	return cmd.RunCommand(flags.Args())
}
