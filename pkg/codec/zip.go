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
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/klauspost/compress/flate"
)

// registerFastFlate swaps archive/zip's built-in (stdlib compress/flate)
// DEFLATE implementation for klauspost/compress/flate, the same
// compressor swap pattern used when wiring zip.RegisterCompressor against
// a faster codec. Done once, process-wide, the way zip.RegisterCompressor
// itself is documented to be used.
var registerFastFlate = sync.OnceFunc(func() {
	zip.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, Level)
	})
	zip.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
})

// ZipPack packs entries (path -> content) into a ZIP archive, one stored
// entry per path, DEFLATE at Level. Paths are written verbatim, preserving
// any "/" separators, per standard ZIP path rules.
func ZipPack(entries map[string][]byte) ([]byte, error) {
	registerFastFlate()

	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths) // deterministic archive layout

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range paths {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   p,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(entries[p]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ZipUnpack is the inverse of ZipPack: it reads every entry of the
// archive in b into memory, keyed by its full path.
func ZipUnpack(b []byte) (map[string][]byte, error) {
	registerFastFlate()

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("codec: invalid zip archive: %w", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("codec: opening %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("codec: reading %q: %w", f.Name, err)
		}
		out[f.Name] = content
	}
	return out, nil
}
