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

import "fmt"

// VerifyResult is the verdict the verification engine reaches for a single
// signature or digest tag.
type VerifyResult int

const (
	// VerifyOK means the digest or signature matched.
	VerifyOK VerifyResult = iota
	// VerifyBad means the digest or signature did not match.
	VerifyBad
	// VerifyNoKey means a signature could not be checked because no
	// matching public key was found in the keyring.
	VerifyNoKey
	// VerifyNotTrusted means a matching public key was found, but it is
	// not (yet) trusted.
	VerifyNotTrusted
	// VerifyUnknown means the tag's algorithm is not one this package
	// knows how to check.
	VerifyUnknown
)

// String renders the verdict the same way the original C implementation's
// rpmVerifySignature did, for use in a one-line "<tagName>: <verdict>"
// report.
func (r VerifyResult) String() string {
	switch r {
	case VerifyOK:
		return "OK"
	case VerifyBad:
		return "BAD"
	case VerifyNoKey:
		return "NOKEY"
	case VerifyNotTrusted:
		return "NOTRUSTED"
	case VerifyUnknown:
		return "UNKNOWN"
	default:
		return "UNKNOWN"
	}
}

// SigErrorKind classifies a structural failure in the signature subsystem,
// as opposed to a verification verdict (which is never an error: "this
// signature is bad" is a successful check that found a bad signature).
type SigErrorKind int

const (
	// KindBadSigType means a signature header referenced a tag/type
	// combination this package does not know how to parse.
	KindBadSigType SigErrorKind = iota
	// KindBadSize means the lead, signature header, padding and declared
	// header+payload size do not add up to the package file's actual size
	// (outside the legacy ±32-byte tolerance).
	KindBadSize
	// KindShortRead means fewer bytes were available than a length field
	// promised.
	KindShortRead
	// KindFail is a catch-all for other structural failures (bad magic,
	// malformed packet, arithmetic that cannot possibly be valid).
	KindFail
	// KindSigGen means generating a signature failed for a reason
	// specific to that operation (the signer exited unsuccessfully or
	// left no signature file).
	KindSigGen
	// KindExec means launching or communicating with the external
	// signing subprocess failed.
	KindExec
)

// SigError reports a structural failure while reading, writing, or
// generating a signature header. It is distinct from a verification
// verdict: a mismatched digest is not a SigError, it is a VerifyResult of
// VerifyBad.
type SigError struct {
	Kind SigErrorKind
	Msg  string
	Err  error
}

func (e *SigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rpmsig: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("rpmsig: %s", e.Msg)
}

func (e *SigError) Unwrap() error {
	return e.Err
}

func newSigError(kind SigErrorKind, msg string, err error) *SigError {
	return &SigError{Kind: kind, Msg: msg, Err: err}
}
