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
	"crypto/md5"
	"io"
	"os"
)

// AddSignature computes one signature or digest tag over the header+payload
// file at path and adds it to sig, dispatching on tag the way the original
// implementation's rpmAddSignature did. passphrase is only consulted by the
// tags that invoke an external signer (PGP/PGP5/GPG/RSA/DSA); cfg supplies
// the macro-backed signer configuration for those tags.
func AddSignature(sig *Header, path string, tag uint32, passphrase string, cfg *Config) error {
	switch tag {
	case SigTagSize:
		return addSizeSignature(sig, path)
	case SigTagMD5:
		return addMD5Signature(sig, path)
	case SigTagPGP: // also SigTagPGP5, which has the same value
		return addPGPSignature(sig, path, passphrase, cfg)
	case SigTagGPG:
		if err := addGPGSignature(sig, path, passphrase, cfg); err != nil {
			return err
		}
		return addHeaderOnlySignature(sig, path, SigTagDSA, passphrase, cfg)
	case SigTagRSA, SigTagDSA, SigTagSHA1:
		return addHeaderOnlySignature(sig, path, tag, passphrase, cfg)
	default:
		return newSigError(KindBadSigType, "cannot add unrecognized signature tag", nil)
	}
}

func addSizeSignature(sig *Header, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return newSigError(KindFail, "cannot stat package file", err)
	}
	sig.AddInt32Value(SigTagSize, []int32{int32(info.Size())})
	return nil
}

func addMD5Signature(sig *Header, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return newSigError(KindFail, "cannot open package file", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return newSigError(KindFail, "cannot read package file", err)
	}
	sig.AddBinaryValue(SigTagMD5, h.Sum(nil))
	return nil
}

func addPGPSignature(sig *Header, path, passphrase string, cfg *Config) error {
	pkt, err := signWithPGP(path, passphrase, cfg)
	if err != nil {
		return err
	}
	sig.AddBinaryValue(SigTagPGP, pkt)
	return nil
}

func addGPGSignature(sig *Header, path, passphrase string, cfg *Config) error {
	pkt, err := signWithGPG(path, passphrase, cfg)
	if err != nil {
		return err
	}
	sig.AddBinaryValue(SigTagGPG, pkt)
	return nil
}

// addHeaderOnlySignature reads the metadata header at the front of the
// header+payload file and adds a signature (RSA, DSA) or digest (SHA1)
// computed over its immutable region alone, mirroring makeHDRSignature.
func addHeaderOnlySignature(sig *Header, path string, tag uint32, passphrase string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return newSigError(KindFail, "cannot open package file", err)
	}
	hdr, err := ReadHeader(f)
	f.Close()
	if err != nil {
		return newSigError(KindFail, "cannot read metadata header", err)
	}

	if hdr.findRecord(TagHeaderImmutable) == nil {
		return newSigError(KindFail, "metadata header has no immutable region", nil)
	}

	switch tag {
	case SigTagSHA1:
		// The "immutable region" digest covers the metadata header's
		// full on-disk serialization (RawBinary already starts with
		// HeaderMagic), not just the region tag's own back-pointer
		// value.
		ctx := NewDigestCtx(DigestSHA1)
		ctx.Update(hdr.RawBinary())
		sig.AddStringValue(SigTagSHA1, ctx.FinalHex(), false)
		return nil

	case SigTagDSA, SigTagRSA:
		tmp, err := makeTempFile("rpmsig-hdr-")
		if err != nil {
			return err
		}
		defer removeTempFile(tmp)

		if _, err := tmp.Write(hdr.RawBinary()); err != nil {
			return newSigError(KindFail, "cannot write temporary header", err)
		}
		if err := tmp.Sync(); err != nil {
			return newSigError(KindFail, "cannot flush temporary header", err)
		}

		var pkt []byte
		if tag == SigTagDSA {
			pkt, err = signWithGPG(tmp.Name(), passphrase, cfg)
		} else {
			pkt, err = signWithPGP(tmp.Name(), passphrase, cfg)
		}
		if err != nil {
			return err
		}
		sig.AddBinaryValue(tag, pkt)
		return nil

	default:
		return newSigError(KindBadSigType, "cannot add unrecognized header-only signature tag", nil)
	}
}
