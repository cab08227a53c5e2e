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

package rpmsig

import (
	"io"
	"os"
)

// SignatureType identifies which of the four historical lead.SignatureType
// encodings a package uses to frame its signature section, mirroring
// rpmReadSignature's sig_type dispatch.
type SignatureType int

// Recognized lead signature types. See lead.go's SignatureType* constants
// for the wire encoding; these name the read-path behavior each implies.
const (
	// SigTypeNoneRead means the package carries no signature section at
	// all.
	SigTypeNoneRead SignatureType = iota
	// SigTypePGP262Read means a fixed 256-byte legacy PGP 2.6.2 signature
	// (of which only the first 152 bytes, the packet body, are kept).
	SigTypePGP262Read
	// SigTypeHeaderRead means a modern tag-value signature header,
	// 8-byte padded, with size validation against the file's actual
	// length.
	SigTypeHeaderRead
	// SigTypeHeaderNoSizeCheck is like SigTypeHeaderRead but skips the
	// checkSize validation (used for the "disabled" lead signature
	// type, which is still framed as a header).
	SigTypeHeaderNoSizeCheck
)

// ReadSignature reads a package's signature section from r, given the lead
// signature type that selects its framing. fileSize, if non-negative, is
// the total size of the underlying package file and triggers checkSize
// validation for SigTypeHeaderRead; pass -1 when the size is unknown or r
// is not seekable (e.g. a pipe), matching the original's "not a regular
// file, skip size check" behavior.
func ReadSignature(r io.Reader, sigType SignatureType, fileSize int64) (*Header, error) {
	switch sigType {
	case SigTypeNoneRead:
		log.Debug("no signature")
		return nil, nil

	case SigTypePGP262Read:
		log.Debug("old PGP signature")
		buf := make([]byte, 256)
		if err := timedRead(r, buf); err != nil {
			return nil, err
		}
		h := &Header{}
		h.AddBinaryValue(SigTagPGP, buf[:152])
		return h, nil

	case SigTypeHeaderRead, SigTypeHeaderNoSizeCheck:
		h, err := ReadHeader(r)
		if err != nil {
			return nil, newSigError(KindFail, "cannot read signature header", err)
		}
		// h already carries its region tag, so its on-disk length is that
		// of RawBinary (SizeOf would count the region tag a second time).
		sigSize := len(h.RawBinary())
		pad := (8 - (sigSize % 8)) % 8

		if sigType == SigTypeHeaderRead && fileSize >= 0 {
			archSize, ok := h.Int32Value(SigTagSize)
			if !ok {
				return nil, newSigError(KindFail, "signature header has no "+tagName(SigTagSize), nil)
			}
			if err := checkSize(fileSize, sigSize, pad, int(archSize)); err != nil {
				return nil, err
			}
		}

		if pad > 0 {
			padBuf := make([]byte, pad)
			if err := timedRead(r, padBuf); err != nil {
				return nil, newSigError(KindShortRead, "cannot read signature padding", err)
			}
		}
		return h, nil

	default:
		return nil, newSigError(KindBadSigType, "unrecognized signature type", nil)
	}
}

// checkSize validates that lead(96) + siglen + pad + datalen matches the
// package file's actual size, within the legacy tolerance of ±32 bytes
// (rpm 4.0 packages differ by -32; packages with a HEADER_IMAGE tag added
// differ by +32). Any other delta is reported as KindBadSize.
func checkSize(fileSize int64, sigLen, pad, dataLen int) error {
	expected := int64(LeadSize + sigLen + pad + dataLen)
	delta := expected - fileSize

	switch delta {
	case -32, 0, 32:
		log.WithField("expected", expected).WithField("actual", fileSize).Debug("package size check OK")
		return nil
	default:
		log.WithField("expected", expected).WithField("actual", fileSize).Warn("package size mismatch")
		return newSigError(KindBadSize, "header+payload size does not match package file size", nil)
	}
}

// WriteSignature serializes sig (prefixed by HeaderMagic and the region
// tag) to w, followed by the 8-byte alignment padding the header region
// always requires, via the same alignment rule the lead+signature+header
// assembly uses.
func WriteSignature(w io.Writer, sig *Header) error {
	data := sig.ToBinary(TagHeaderSignatures)
	aligned := appendAlignedTo8Byte(data, nil)
	if _, err := w.Write(aligned); err != nil {
		return newSigError(KindFail, "cannot write signature header", err)
	}

	log.WithField("size", len(data)).WithField("pad", len(aligned)-len(data)).Debug("wrote signature header")
	return nil
}

// NewSignature returns an empty signature header, ready to have tags added
// via the AddSignature family of functions.
func NewSignature() *Header {
	return &Header{}
}

// fileSize stats an open file to learn its size, returning -1 (meaning
// "unknown, skip size check") for anything that is not a regular file.
func fileSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}
