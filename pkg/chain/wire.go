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

package chain

// record is the on-disk shape of a chains-collection row: an encrypted,
// compressed chain payload plus the signature over its compressed form.
// Unlike a files-collection content blob, a chain record always carries
// sig (spec §4.4).
type record struct {
	IV         []byte `json:"iv"`
	Ciphertext []byte `json:"ciphertext"`
	Sig        string `json:"sig"`
}
