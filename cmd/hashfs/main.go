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

// Command hashfs is a thin, single-user front end over pkg/vault: it
// demonstrates the embedding contract (spec.md §6 leaves the CLI/env
// surface to the host) rather than being part of the engine itself.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintln(os.Stderr, "hashfs:", err)
		os.Exit(1)
	}
}
