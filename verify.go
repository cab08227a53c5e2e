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
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
)

// VerifyReport is the verdict and human-readable diagnostic for a single
// signature header tag, as produced by VerifySignature/VerifyAll.
type VerifyReport struct {
	Tag     uint32
	Result  VerifyResult
	Message string
}

// VerifySignature checks a single signature header tag's value against the
// running digests in dig, consulting lookup for the tags that need a
// public key. sigValue is the tag's raw value; for SigTagSize it must be
// the 4-byte big-endian declared header+payload size.
func VerifySignature(tag uint32, sigValue []byte, dig *Dig, lookup PubkeyLookup) VerifyReport {
	switch tag {
	case SigTagSize:
		return verifySize(sigValue, dig)
	case SigTagMD5:
		return verifyMD5(sigValue, dig)
	case SigTagSHA1:
		return verifySHA1(string(bytes.TrimRight(sigValue, "\x00")), dig)
	case SigTagPGP: // also SigTagPGP5, which has the same value
		return verifyRSALike(tag, sigValue, dig.MD5Digest(), dig.NBytesHeaderPayload(), lookup)
	case SigTagRSA:
		return verifyRSALike(tag, sigValue, dig.MD5Digest(), dig.NBytesHeaderPayload(), lookup)
	case SigTagGPG:
		return verifyDSALike(tag, sigValue, dig.SHA1Digest(), dig.NBytesHeaderPayload(), lookup, false)
	case SigTagDSA:
		return verifyDSALike(tag, sigValue, dig.HeaderSHA1Digest(), dig.NBytesHeader(), lookup, true)
	case SigTagLEMD5_1, SigTagLEMD5_2:
		return VerifyReport{Tag: tag, Result: VerifyUnknown, Message: "Broken MD5 digest: UNSUPPORTED"}
	default:
		return VerifyReport{Tag: tag, Result: VerifyUnknown, Message: fmt.Sprintf("Signature: UNKNOWN (%d)", tag)}
	}
}

// VerifyAll runs VerifySignature for every tag found in the parsed
// signature header, in the order the header lists them (skipping the
// region tag entry), and returns one report per tag.
func VerifyAll(sigHeader *Header, dig *Dig, lookup PubkeyLookup) []VerifyReport {
	var reports []VerifyReport
	for _, ir := range sigHeader.Records {
		if ir.Tag == TagHeaderSignatures {
			continue
		}
		var value []byte
		switch ir.Type {
		case TypeInt32:
			if n, ok := sigHeader.Int32Value(ir.Tag); ok {
				value = make([]byte, 4)
				binary.BigEndian.PutUint32(value, uint32(n))
			}
		case TypeString:
			if s, ok := sigHeader.StringValue(ir.Tag); ok {
				value = []byte(s)
			}
		default:
			var ok bool
			value, ok = sigHeader.BinaryValue(ir.Tag)
			if !ok {
				value = sigHeader.Data[ir.Offset : ir.Offset+ir.Count]
			}
		}
		reports = append(reports, VerifySignature(ir.Tag, value, dig, lookup))
	}
	return reports
}

func verifySize(sigValue []byte, dig *Dig) VerifyReport {
	label := "Header+Payload size: "
	if len(sigValue) != 4 || dig.NBytesHeaderPayload() == 0 {
		return VerifyReport{Tag: SigTagSize, Result: VerifyNoKey, Message: label + "NOKEY"}
	}
	declared := int32(binary.BigEndian.Uint32(sigValue))
	actual := int32(dig.NBytesHeaderPayload())
	if declared != actual {
		return VerifyReport{
			Tag:     SigTagSize,
			Result:  VerifyBad,
			Message: fmt.Sprintf("%sBAD Expected(%d) != (%d)", label, declared, actual),
		}
	}
	return VerifyReport{Tag: SigTagSize, Result: VerifyOK, Message: fmt.Sprintf("%sOK (%d)", label, actual)}
}

func verifyMD5(sigValue []byte, dig *Dig) VerifyReport {
	label := "MD5 digest: "
	actual := dig.MD5Digest().Final()
	if len(sigValue) != len(actual) || !bytes.Equal(sigValue, actual) {
		return VerifyReport{
			Tag:    SigTagMD5,
			Result: VerifyBad,
			Message: fmt.Sprintf("%sBAD Expected(%s) != (%s)", label,
				hex.EncodeToString(sigValue), hex.EncodeToString(actual)),
		}
	}
	return VerifyReport{Tag: SigTagMD5, Result: VerifyOK, Message: fmt.Sprintf("%sOK (%s)", label, hex.EncodeToString(actual))}
}

func verifySHA1(sigValue string, dig *Dig) VerifyReport {
	label := "Header SHA1 digest: "
	actual := dig.HeaderSHA1Digest().FinalHex()
	if actual != sigValue {
		return VerifyReport{
			Tag:     SigTagSHA1,
			Result:  VerifyBad,
			Message: fmt.Sprintf("%sBAD Expected(%s) != (%s)", label, sigValue, actual),
		}
	}
	return VerifyReport{Tag: SigTagSHA1, Result: VerifyOK, Message: fmt.Sprintf("%sOK (%s)", label, actual)}
}

// verifyRSALike verifies a V3 RSA/MD5 signature packet against the MD5
// digest it is given. VerifySignature passes the header+payload MD5 for
// SigTagPGP/PGP5 and for SigTagRSA alike; there is no header-only MD5
// context.
func verifyRSALike(tag uint32, sigValue []byte, md5 *DigestCtx, streamedBytes int, lookup PubkeyLookup) VerifyReport {
	label := tagName(tag) + ": "

	sigp, err := ParseSignaturePacket(sigValue)
	if err != nil {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY"}
	}
	if sigp.PubKeyAlgo != PubKeyAlgoRSA || sigp.HashAlgo != HashAlgoMD5 {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY"}
	}

	keyIDSuffix := ", key ID " + hex.EncodeToString(sigp.SignID[4:8])

	if len(sigp.Hashed) > 0 {
		md5.Update(sigp.Hashed)
	}
	if trailer := sigp.HashedTrailer(streamedBytes); trailer != nil {
		md5.Update(trailer)
	}
	digest := md5.Final()

	if digest[0] != sigp.SignHash16[0] || digest[1] != sigp.SignHash16[1] {
		return VerifyReport{Tag: tag, Result: VerifyBad, Message: label + "BAD" + keyIDSuffix}
	}

	if lookup == nil {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY" + keyIDSuffix}
	}
	pk, lookupResult := lookup.FindRSAKey(sigp.SignID)
	if lookupResult != VerifyOK || pk == nil {
		if lookupResult != VerifyNotTrusted {
			lookupResult = VerifyNoKey
		}
		return VerifyReport{Tag: tag, Result: lookupResult, Message: label + lookupResult.String() + keyIDSuffix}
	}

	hashedMessage := pkcs1v15Pad(pk.N.BitLen(), md5DigestInfoPrefix, digest)
	result := VerifyBad
	if rsaVerify(pk, hashedMessage, sigp.RSASignature) {
		result = VerifyOK
	}
	return VerifyReport{Tag: tag, Result: result, Message: label + result.String() + keyIDSuffix}
}

// verifyDSALike verifies a V3 DSA/SHA-1 signature packet (SigTagGPG over
// header+payload, or SigTagDSA over the header alone).
func verifyDSALike(tag uint32, sigValue []byte, sha1 *DigestCtx, streamedBytes int, lookup PubkeyLookup, headerOnly bool) VerifyReport {
	label := ""
	if headerOnly {
		label = "Header "
	}
	label += "V3 DSA signature: "

	sigp, err := ParseSignaturePacket(sigValue)
	if err != nil {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY"}
	}
	if sigp.PubKeyAlgo != PubKeyAlgoDSA || sigp.HashAlgo != HashAlgoSHA1 {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY"}
	}

	keyIDSuffix := ", key ID " + hex.EncodeToString(sigp.SignID[4:8])

	if len(sigp.Hashed) > 0 {
		sha1.Update(sigp.Hashed)
	}
	if trailer := sigp.HashedTrailer(streamedBytes); trailer != nil {
		sha1.Update(trailer)
	}
	digest := sha1.Final()
	hm := new(big.Int).SetBytes(digest)

	if digest[0] != sigp.SignHash16[0] || digest[1] != sigp.SignHash16[1] {
		return VerifyReport{Tag: tag, Result: VerifyBad, Message: label + "BAD" + keyIDSuffix}
	}

	if lookup == nil {
		return VerifyReport{Tag: tag, Result: VerifyNoKey, Message: label + "NOKEY" + keyIDSuffix}
	}
	pk, lookupResult := lookup.FindDSAKey(sigp.SignID)
	if lookupResult != VerifyOK || pk == nil {
		if lookupResult != VerifyNotTrusted {
			lookupResult = VerifyNoKey
		}
		return VerifyReport{Tag: tag, Result: lookupResult, Message: label + lookupResult.String() + keyIDSuffix}
	}

	result := VerifyBad
	if dsaVerify(pk, hm, sigp.DSASigR, sigp.DSASigS) {
		result = VerifyOK
	}
	return VerifyReport{Tag: tag, Result: result, Message: label + result.String() + keyIDSuffix}
}
