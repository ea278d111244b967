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

import "github.com/google/uuid"

// newBlobKey returns a fresh, opaque blob key. Spec requires blob keys
// never be reused; a v4 UUID gives collision odds low enough to treat as
// never.
func newBlobKey() string { return uuid.NewString() }

// newChainID returns a fresh chain_id, a UUID-formatted hex string per
// spec §6.
func newChainID() string { return uuid.NewString() }
