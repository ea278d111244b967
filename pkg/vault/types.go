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

package vault

// FileSummary is the per-file row the host renders in its file list.
type FileSummary struct {
	Name               string `json:"name"`
	Mime               string `json:"mime"`
	HeadVersion        int    `json:"headVersion"`
	LastSize           int    `json:"lastSize"`
	LastCompressedSize int    `json:"lastCompressedSize"`
	LastModified       int64  `json:"lastModified"`
}

// Fingerprint identifies a vault namespace (Base) and the current unlock
// session within it (Session), per spec §4.7 step 4.
type Fingerprint struct {
	Base    string `json:"base"`
	Session string `json:"session"`
}

// RecoveryInfo is surfaced when init had to repair something: either the
// store failed its health probe and was recreated, or the metadata index
// was unreadable and was rebuilt from the chain store.
type RecoveryInfo struct {
	Rebuilt bool   `json:"rebuilt"`
	Reason  string `json:"reason"`
}

// InitResult is returned by Init.
type InitResult struct {
	Files       []FileSummary `json:"files"`
	Fingerprint Fingerprint   `json:"fingerprint"`
	Recovery    *RecoveryInfo `json:"recoveryInfo,omitempty"`
}

// AvailableVersions reports the oldest and newest version numbers a
// chain still retains.
type AvailableVersions struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// LoadResult is returned by Load.
type LoadResult struct {
	Bytes             []byte            `json:"-"`
	Mime              string            `json:"mime"`
	Size              int               `json:"size"`
	Version           int               `json:"version"`
	CurrentVersion    int               `json:"currentVersion"`
	AvailableVersions AvailableVersions `json:"availableVersions"`
	Recovered         bool              `json:"recovered"`
}

// SaveOptions carries per-call overrides of the vault's default version
// limit. A zero VersionLimit means "use the vault's default".
type SaveOptions struct {
	VersionLimit int
}

// SaveResult is returned by Save.
type SaveResult struct {
	Unchanged bool          `json:"unchanged,omitempty"`
	Version   int           `json:"version,omitempty"`
	Files     []FileSummary `json:"files,omitempty"`
}

// ImportFileItem is one input to ImportFiles: a name, its raw bytes, and
// an optional declared MIME type.
type ImportFileItem struct {
	Name  string
	Bytes []byte
	Type  string
}

// ImportItem is one entry of the list returned by ImportZip/ImportFiles:
// either ready for the host to hand to Save, or a per-item failure.
type ImportItem struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Mime    string `json:"mime,omitempty"`
	Bytes   []byte `json:"-"`
	Error   string `json:"error,omitempty"`
}

// ProgressFunc reports progress of a long-running operation: how many of
// total units are complete, and which item is currently being processed.
type ProgressFunc func(completed, total int, current string)

// IntegrityReport is returned by IntegrityCheck.
type IntegrityReport struct {
	Issues         []string `json:"issues"`
	FilesRemoved   int      `json:"filesRemoved"`
	OrphansRemoved int      `json:"orphansRemoved"`
}
