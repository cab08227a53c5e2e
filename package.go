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

// Package is the result of reading an RPM file's lead, signature header,
// and metadata header, together with the running digests needed to
// verify every signature tag the signature header carries.
type Package struct {
	Lead         *Lead
	SignatureHdr *Header
	MetadataHdr  *Header
	Dig          *Dig
}

// signatureTypeFor maps a lead's 16-bit SignatureType field to the
// framing ReadSignature should use.
func signatureTypeFor(lead *Lead) (SignatureType, error) {
	switch int16(lead.SignatureType) {
	case SignatureTypeNone:
		return SigTypeNoneRead, nil
	case SignatureTypePGP262_1024:
		return SigTypePGP262Read, nil
	case SignatureTypeHeaderSig:
		return SigTypeHeaderRead, nil
	case SignatureTypeDisabled:
		return SigTypeHeaderNoSizeCheck, nil
	case SignatureTypeMD5, SignatureTypeMD5PGP:
		return 0, newSigError(KindBadSigType, "old internal-only MD5 signature type is not supported", nil)
	default:
		return 0, newSigError(KindBadSigType, "unrecognized lead signature type", nil)
	}
}

// ReadPackage reads an entire RPM file from f: the lead, the signature
// header (validated against f's actual size when it is a regular file),
// and the metadata header, while streaming everything after the lead
// through a fresh Dig so that every digest VerifyAll might need is ready
// to finalize. f's position must be at the start of the file; its size
// for checkSize comes from f.Stat, and the size check is skipped when f is
// not a regular file.
func ReadPackage(f *os.File) (*Package, error) {
	lead, err := ReadLead(f)
	if err != nil {
		return nil, err
	}

	sigType, err := signatureTypeFor(lead)
	if err != nil {
		return nil, err
	}

	size := fileSize(f)
	sigHeader, err := ReadSignature(f, sigType, size)
	if err != nil {
		return nil, err
	}

	dig := NewDig()
	metadataHdr, err := readMetadataHeader(f, dig)
	if err != nil {
		return nil, err
	}

	return &Package{
		Lead:         lead,
		SignatureHdr: sigHeader,
		MetadataHdr:  metadataHdr,
		Dig:          dig,
	}, nil
}

// readMetadataHeader reads the metadata header starting at f's current
// position, feeding its raw on-disk bytes into dig's header-only digest,
// then streams the remaining payload bytes into dig's header+payload
// digests. The metadata header's own bytes are also fed into the
// header+payload digests, matching the original implementation's md5sum
// (and legacy sha1sum) spanning the whole header+payload region.
func readMetadataHeader(f *os.File, dig *Dig) (*Header, error) {
	hdr, err := ReadHeader(f)
	if err != nil {
		return nil, newSigError(KindFail, "cannot read metadata header", err)
	}

	raw := hdr.RawBinary()
	dig.UpdateHeader(raw)
	dig.UpdateHeaderPayload(raw)

	if _, err := io.Copy(headerPayloadWriter{dig}, f); err != nil {
		return nil, newSigError(KindFail, "cannot read payload", err)
	}
	return hdr, nil
}

// headerPayloadWriter adapts Dig.UpdateHeaderPayload to io.Writer so
// io.Copy can stream the payload straight into the running digests
// without buffering it in memory.
type headerPayloadWriter struct {
	dig *Dig
}

func (w headerPayloadWriter) Write(p []byte) (int, error) {
	w.dig.UpdateHeaderPayload(p)
	return len(p), nil
}
