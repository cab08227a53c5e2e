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
	"crypto/sha1"
	"encoding"
	"encoding/hex"
	"fmt"
	"hash"
)

// DigestAlgo identifies a supported incremental digest algorithm.
type DigestAlgo int

// Supported digest algorithms. Both are produced by the OpenPGP signature
// algorithms this package verifies: MD5 backs RSA/MD5 (PGP, PGP5, legacy
// RSA), SHA1 backs DSA/SHA-1 (GPG, DSA) as well as the plain SHA1 header
// tag.
const (
	DigestMD5 DigestAlgo = iota
	DigestSHA1
)

// cloner is satisfied by both crypto/md5 and crypto/sha1's hash.Hash
// implementations: they marshal their running state so it can be restored
// into an independent copy. This is the mechanism digest_dup uses to
// finalize a digest without disturbing the original, still-streaming
// context (required because, e.g., the single header-only SHA-1 stream
// backs both the SHA1 tag's digest and the DSA tag's signature check).
type cloner interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// DigestCtx is an incremental digest context, as streamed while reading or
// writing a package's header and payload.
type DigestCtx struct {
	algo DigestAlgo
	h    hash.Hash
}

// NewDigestCtx starts a new incremental digest of the given algorithm.
func NewDigestCtx(algo DigestAlgo) *DigestCtx {
	switch algo {
	case DigestMD5:
		return &DigestCtx{algo: algo, h: md5.New()}
	case DigestSHA1:
		return &DigestCtx{algo: algo, h: sha1.New()}
	default:
		panic(fmt.Sprintf("rpmsig: unknown digest algorithm %d", algo))
	}
}

// Update feeds more bytes into the digest. It never fails (hash.Hash.Write
// never returns an error per its documented contract).
func (ctx *DigestCtx) Update(p []byte) {
	ctx.h.Write(p)
}

// Dup returns an independent copy of ctx that can be finalized (or fed
// more data) without affecting the original. This is the central safety
// property required by the verification engine: a digest is always
// finalized on a duplicate, never on the context that other verifiers
// still need to read from.
func (ctx *DigestCtx) Dup() *DigestCtx {
	c, ok := ctx.h.(cloner)
	if !ok {
		panic(fmt.Sprintf("rpmsig: digest algorithm %d does not support duplication", ctx.algo))
	}
	state, err := c.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("rpmsig: cannot marshal digest state: %v", err))
	}

	dup := NewDigestCtx(ctx.algo)
	dupCloner := dup.h.(cloner)
	if err := dupCloner.UnmarshalBinary(state); err != nil {
		panic(fmt.Sprintf("rpmsig: cannot unmarshal digest state: %v", err))
	}
	return dup
}

// Final returns the finalized digest bytes. The context must not be used
// afterwards (it has been consumed); callers that still need the running
// digest must call Dup first.
func (ctx *DigestCtx) Final() []byte {
	return ctx.h.Sum(nil)
}

// FinalHex returns the finalized digest as a lowercase hex string.
func (ctx *DigestCtx) FinalHex() string {
	return hex.EncodeToString(ctx.Final())
}
