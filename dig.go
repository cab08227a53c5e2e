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

// Dig bundles the running digests and byte counters that accumulate while a
// package's header and payload are streamed through ReadPackage, and that
// VerifySignature/VerifyAll finalize, mirroring the original implementation's per-package
// pgpDig bag. A fresh Dig is created per package; it is never reused across
// packages.
type Dig struct {
	// md5ctx streams the whole header+payload, backing SigTagMD5 and
	// SigTagPGP/SigTagPGP5/SigTagRSA. The original implementation never
	// grew a header-only MD5 context to pair with a header-only RSA
	// signature, so SigTagRSA verification reuses this one too.
	md5ctx *DigestCtx
	// sha1ctx streams the whole header+payload as well, backing the
	// legacy combined SigTagGPG.
	sha1ctx *DigestCtx
	// hdrsha1ctx streams the metadata header's immutable region only,
	// backing SigTagSHA1 and SigTagDSA.
	hdrsha1ctx *DigestCtx

	// nbytesHeaderPayload counts bytes fed into md5ctx/sha1ctx so far.
	nbytesHeaderPayload int
	// nbytesHeader counts bytes fed into hdrsha1ctx so far.
	nbytesHeader int
}

// NewDig starts a fresh set of running digests. Feed it with
// UpdateHeaderPayload (for the whole header+payload stream) and UpdateHeader
// (for the metadata header's immutable region) as bytes become available.
func NewDig() *Dig {
	return &Dig{
		md5ctx:     NewDigestCtx(DigestMD5),
		sha1ctx:    NewDigestCtx(DigestSHA1),
		hdrsha1ctx: NewDigestCtx(DigestSHA1),
	}
}

// UpdateHeaderPayload feeds bytes of the concatenated metadata header and
// compressed payload into the running MD5 and whole-file SHA-1 contexts.
func (d *Dig) UpdateHeaderPayload(p []byte) {
	d.md5ctx.Update(p)
	d.sha1ctx.Update(p)
	d.nbytesHeaderPayload += len(p)
}

// UpdateHeader feeds bytes of the metadata header's immutable region
// (HeaderMagic followed by the region's index records and data) into the
// running header-only SHA-1 context.
func (d *Dig) UpdateHeader(p []byte) {
	d.hdrsha1ctx.Update(p)
	d.nbytesHeader += len(p)
}

// MD5Digest returns an independent, finalizable copy of the running
// header+payload MD5 digest. Safe to call repeatedly; does not disturb
// further streaming.
func (d *Dig) MD5Digest() *DigestCtx {
	return d.md5ctx.Dup()
}

// SHA1Digest returns an independent, finalizable copy of the running
// header+payload SHA-1 digest (for the legacy combined GPG tag).
func (d *Dig) SHA1Digest() *DigestCtx {
	return d.sha1ctx.Dup()
}

// HeaderSHA1Digest returns an independent, finalizable copy of the running
// header-only SHA-1 digest.
func (d *Dig) HeaderSHA1Digest() *DigestCtx {
	return d.hdrsha1ctx.Dup()
}

// NBytesHeaderPayload returns how many bytes have been fed into the
// header+payload digests so far.
func (d *Dig) NBytesHeaderPayload() int {
	return d.nbytesHeaderPayload
}

// NBytesHeader returns how many bytes have been fed into the header-only
// digest so far.
func (d *Dig) NBytesHeader() int {
	return d.nbytesHeader
}
