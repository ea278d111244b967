/*
Copyright 2014 The Camlistore Authors

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

package codec

import (
	"bytes"
	"testing"
)

func TestCompressInflateRoundTrip(t *testing.T) {
	orig := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 100)
	compressed, err := Compress(orig)
	if err != nil {
		t.Fatal(err)
	}
	if len(compressed) >= len(orig) {
		t.Fatalf("compressed (%d) not smaller than original (%d) for repetitive input", len(compressed), len(orig))
	}
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, orig) {
		t.Fatal("inflate(compress(x)) != x")
	}
}

func TestCompressEmpty(t *testing.T) {
	compressed, err := Compress(nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Inflate(compressed)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("Inflate(Compress(nil)) = %q; want empty", got)
	}
}

func TestZipPackUnpackRoundTrip(t *testing.T) {
	entries := map[string][]byte{
		"notes.md":          []byte("# hello\n"),
		"dir/nested/file":   []byte{0x00, 0x01, 0xff, 0xfe},
		".hashfs_meta.json": []byte(`{"mimes":{"notes.md":"text/markdown"}}`),
	}
	zb, err := ZipPack(entries)
	if err != nil {
		t.Fatal(err)
	}
	out, err := ZipUnpack(zb)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(entries) {
		t.Fatalf("got %d entries; want %d", len(out), len(entries))
	}
	for path, want := range entries {
		got, ok := out[path]
		if !ok {
			t.Fatalf("missing entry %q", path)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("entry %q: got %q, want %q", path, got, want)
		}
	}
}

func TestZipUnpackInvalid(t *testing.T) {
	if _, err := ZipUnpack([]byte("not a zip file")); err == nil {
		t.Fatal("expected error unpacking garbage bytes")
	}
}
