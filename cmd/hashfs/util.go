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
	"fmt"
	"time"

	"hashfs.io/hashfs/pkg/vault"
)

func printFileTable(files []vault.FileSummary) {
	if len(files) == 0 {
		fmt.Println("(no files)")
		return
	}
	for _, f := range files {
		modified := time.UnixMilli(f.LastModified).UTC().Format(time.RFC3339)
		fmt.Printf("%-40s v%-4d %8d bytes  %-24s %s\n", f.Name, f.HeadVersion, f.LastSize, f.Mime, modified)
	}
}
