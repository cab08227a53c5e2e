/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package rpmtestdata builds small, real RPM-shaped files for tests: a
// compressed CPIO payload, a metadata header, and (optionally) a complete
// lead+signature+header+payload package file. It exists so the rest of the
// module's tests can exercise ReadPackage/AddSignature/VerifyAll against
// on-disk bytes instead of hand-built byte slices, without shelling out to
// rpmbuild.
package rpmtestdata

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"

	cpio "github.com/surma/gocpio"

	"github.com/majewsky/rpmsig"
)

// File is a single regular file to place in a test payload.
type File struct {
	Name    string
	Content []byte
	Mode    int64
}

// BuildPayload writes files as a "newc"-less classic binary cpio archive
// (mirroring the odc-derived format holo-build's hand-rolled writer
// produced) and compresses it with the same "xz --format=lzma" invocation
// the teacher's payload generator used. It returns the compressed bytes and
// the uncompressed archive size (needed for SigTagPayloadSize-style
// fixtures).
func BuildPayload(files []File) (compressed []byte, uncompressedSize int, err error) {
	sorted := append([]File{}, files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	w := cpio.NewWriter(&buf)
	for _, f := range sorted {
		hdr := &cpio.Header{
			Name: f.Name,
			Mode: f.Mode,
			Size: int64(len(f.Content)),
		}
		if err := w.WriteHeader(hdr); err != nil {
			return nil, 0, fmt.Errorf("rpmtestdata: cannot write cpio header for %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Content); err != nil {
			return nil, 0, fmt.Errorf("rpmtestdata: cannot write cpio data for %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, 0, fmt.Errorf("rpmtestdata: cannot close cpio archive: %w", err)
	}

	uncompressed := buf.Bytes()
	cmd := exec.Command("xz", "--format=lzma", "--compress")
	cmd.Stdin = bytes.NewReader(uncompressed)
	out, err := cmd.Output()
	if err != nil {
		return nil, 0, fmt.Errorf("rpmtestdata: cannot compress payload: %w", err)
	}
	return out, len(uncompressed), nil
}

// BuildMetadataHeader returns a minimal, but real, immutable-region-tagged
// metadata header carrying a single string tag (standing in for RPMTAG_NAME,
// which is out of this subsystem's scope) so tests have something with
// actual content to hash and sign.
func BuildMetadataHeader(nvr string) *rpmsig.Header {
	hdr := &rpmsig.Header{}
	hdr.AddStringValue(1000000, nvr, false)
	return hdr
}

// WriteHeaderPayloadFile serializes hdr (as an immutable region, the way a
// real metadata header is framed) followed by a compressed payload built
// from files, to a fresh temporary file, and returns its path. This is the
// "header+payload" file AddSignature's tags operate on.
func WriteHeaderPayloadFile(dir string, hdr *rpmsig.Header, files []File) (path string, err error) {
	payload, _, err := BuildPayload(files)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "rpmtestdata-hp-")
	if err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(hdr.ToBinary(rpmsig.TagHeaderImmutable)); err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot write header: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot write payload: %w", err)
	}
	return f.Name(), nil
}

// AssemblePackage concatenates a lead, a signature header (already populated
// via the AddSignature family and serialized with WriteSignature), and a
// header+payload blob (as produced by WriteHeaderPayloadFile) into a
// complete package file, suitable for rpmsig.ReadPackage.
func AssemblePackage(dir string, lead *rpmsig.Lead, sig *rpmsig.Header, headerPayloadPath string) (path string, err error) {
	f, err := os.CreateTemp(dir, "rpmtestdata-pkg-")
	if err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(lead.ToBinary()); err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot write lead: %w", err)
	}
	if err := rpmsig.WriteSignature(f, sig); err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot write signature: %w", err)
	}

	hp, err := os.ReadFile(headerPayloadPath)
	if err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot read header+payload file: %w", err)
	}
	if _, err := f.Write(hp); err != nil {
		return "", fmt.Errorf("rpmtestdata: cannot write header+payload: %w", err)
	}
	return f.Name(), nil
}
