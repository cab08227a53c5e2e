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

// List of known values for HeaderIndexRecord.Type. [LSB,25.2.2.2.1]
//
// Note that not all types need writing support; char and int{8,16,64} are
// not needed for any tag this package must produce, but Int16 is needed to
// read legacy FileModes/FileRdevs entries.
const (
	TypeNull        = 0
	TypeChar        = 1
	TypeInt8        = 2
	TypeInt16       = 3
	TypeInt32       = 4
	TypeInt64       = 5 // reserved
	TypeString      = 6
	TypeBin         = 7
	TypeStringArray = 8
	TypeI18NString  = 9
)

// Region tags that mark the start of an (allegedly) immutable block of
// records. [LSB, 25.2.2.2.2]
const (
	TagHeaderSignatures = 62 // type: BIN, used as region tag of the signature header
	TagHeaderImmutable  = 63 // type: BIN, used as region tag of the metadata header
	TagHeaderI18NTable  = 100
)

// Recognized signature tags, i.e. HeaderIndexRecord.Tag values valid within
// the signature header. See spec §3.
const (
	SigTagSize        = 1000 // type: INT32, total byte length of header+payload
	SigTagPGP         = 1002 // type: BIN, RSA/MD5 packet over header+payload
	SigTagMD5         = 1004 // type: BIN(16), MD5 of header+payload
	SigTagGPG         = 1005 // type: BIN, DSA/SHA-1 packet over header+payload
	SigTagPayloadSize = 1007 // type: INT32, uncompressed payload size
	SigTagSHA1        = 269  // type: STRING, SHA-1 of immutable header region
	SigTagDSA         = 267  // type: BIN, DSA/SHA-1 packet over the immutable header region
	SigTagRSA         = 268  // type: BIN, RSA/SHA-1 (or legacy RSA/MD5) packet over the immutable header region
	SigTagPGP5        = 1002 // legacy alias of SigTagPGP
	SigTagLEMD5_1     = 1003 // obsolete, always UNSUPPORTED
	SigTagLEMD5_2     = 1006 // obsolete, always UNSUPPORTED
)

// tagName returns a human-readable label for a signature tag, as used in
// verification diagnostics.
func tagName(tag uint32) string {
	switch tag {
	case SigTagSize:
		return "Header+Payload size"
	case SigTagMD5:
		return "MD5 digest"
	case SigTagSHA1:
		return "Header SHA1 digest"
	case SigTagPGP: // also SigTagPGP5, which has the same value
		return "V3 RSA/MD5 signature"
	case SigTagRSA:
		return "Header V3 RSA/MD5 signature"
	case SigTagGPG:
		return "V3 DSA signature"
	case SigTagDSA:
		return "Header V3 DSA signature"
	case SigTagLEMD5_1, SigTagLEMD5_2:
		return "Broken MD5 digest"
	default:
		return "Signature"
	}
}
