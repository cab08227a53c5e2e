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
	"crypto/dsa"
	"crypto/md5"
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubLookup is a PubkeyLookup backed by plain in-memory keys, avoiding the
// need to serialize a real OpenPGP keyring just to exercise the verification
// dispatch.
type stubLookup struct {
	rsaKeys     map[[8]byte]*RSAPublicKey
	dsaKeys     map[[8]byte]*DSAPublicKey
	revokedKeys map[[8]byte]bool
}

func (s *stubLookup) FindRSAKey(keyID [8]byte) (*RSAPublicKey, VerifyResult) {
	if s.revokedKeys[keyID] {
		return nil, VerifyNotTrusted
	}
	k, ok := s.rsaKeys[keyID]
	if !ok {
		return nil, VerifyNoKey
	}
	return k, VerifyOK
}

func (s *stubLookup) FindDSAKey(keyID [8]byte) (*DSAPublicKey, VerifyResult) {
	if s.revokedKeys[keyID] {
		return nil, VerifyNotTrusted
	}
	k, ok := s.dsaKeys[keyID]
	if !ok {
		return nil, VerifyNoKey
	}
	return k, VerifyOK
}

func encodeMPI(v *big.Int) []byte {
	b := v.Bytes()
	out := make([]byte, 2+len(b))
	binary.BigEndian.PutUint16(out, uint16(v.BitLen()))
	copy(out[2:], b)
	return out
}

// buildV3Packet assembles a detached V3 OpenPGP signature packet (old-format
// framing, tag 2) with the given algorithm IDs, key ID, leading two digest
// bytes and trailing signature MPIs, matching the byte layout
// ParseSignaturePacket's parseSignatureV3 expects.
func buildV3Packet(pubAlgo, hashAlgo byte, keyID [8]byte, signHash16 [2]byte, mpis ...*big.Int) []byte {
	body := []byte{3, 5, 0x00, 0, 0, 0, 0}
	body = append(body, keyID[:]...)
	body = append(body, pubAlgo, hashAlgo)
	body = append(body, signHash16[:]...)
	for _, m := range mpis {
		body = append(body, encodeMPI(m)...)
	}

	pkt := []byte{0x80 | (2 << 2) | 1}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(body)))
	pkt = append(pkt, lenBuf[:]...)
	pkt = append(pkt, body...)
	return pkt
}

var testKeyID = [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

func TestVerifySignatureSize(t *testing.T) {
	dig := NewDig()
	dig.UpdateHeaderPayload([]byte("header+payload bytes"))

	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len("header+payload bytes")))
	report := VerifySignature(SigTagSize, sizeBuf[:], dig, nil)
	require.Equal(t, VerifyOK, report.Result)

	binary.BigEndian.PutUint32(sizeBuf[:], 999)
	report = VerifySignature(SigTagSize, sizeBuf[:], dig, nil)
	require.Equal(t, VerifyBad, report.Result)
}

func TestVerifySignatureMD5(t *testing.T) {
	payload := []byte("header+payload bytes")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	sum := md5.Sum(payload)
	report := VerifySignature(SigTagMD5, sum[:], dig, nil)
	require.Equal(t, VerifyOK, report.Result)

	tampered := append([]byte{}, sum[:]...)
	tampered[0] ^= 0xff
	report = VerifySignature(SigTagMD5, tampered, dig, nil)
	require.Equal(t, VerifyBad, report.Result)
}

func TestVerifySignatureSHA1(t *testing.T) {
	header := []byte("immutable header bytes")
	dig := NewDig()
	dig.UpdateHeader(header)

	ctx := NewDigestCtx(DigestSHA1)
	ctx.Update(header)
	hex := ctx.FinalHex()

	report := VerifySignature(SigTagSHA1, []byte(hex+"\x00"), dig, nil)
	require.Equal(t, VerifyOK, report.Result)

	report = VerifySignature(SigTagSHA1, []byte("0000000000000000000000000000000000000000"), dig, nil)
	require.Equal(t, VerifyBad, report.Result)
}

func TestVerifySignatureRSAOverHeaderPayload(t *testing.T) {
	payload := []byte("concatenated header and compressed payload bytes")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	digest := md5.Sum(payload)
	hashedMessage := pkcs1v15Pad(priv.N.BitLen(), md5DigestInfoPrefix, digest[:])
	sig := new(big.Int).Exp(hashedMessage, priv.D, priv.N)

	var signHash16 [2]byte
	copy(signHash16[:], digest[:2])
	pkt := buildV3Packet(PubKeyAlgoRSA, HashAlgoMD5, testKeyID, signHash16, sig)

	lookup := &stubLookup{rsaKeys: map[[8]byte]*RSAPublicKey{
		testKeyID: {N: priv.N, E: bigFromInt(priv.E)},
	}}

	report := VerifySignature(SigTagRSA, pkt, dig, lookup)
	require.Equal(t, VerifyOK, report.Result)

	// SigTagPGP is verified over the identical whole-file MD5 context, so
	// the same packet checks out there too.
	report = VerifySignature(SigTagPGP, pkt, dig, lookup)
	require.Equal(t, VerifyOK, report.Result)
}

// countingLookup wraps a PubkeyLookup and records how many times each
// accessor was called, so a test can assert the prefix-check gate rejects a
// signature before ever consulting the keyring.
type countingLookup struct {
	inner    PubkeyLookup
	rsaCalls int
	dsaCalls int
}

func (c *countingLookup) FindRSAKey(keyID [8]byte) (*RSAPublicKey, VerifyResult) {
	c.rsaCalls++
	return c.inner.FindRSAKey(keyID)
}

func (c *countingLookup) FindDSAKey(keyID [8]byte) (*DSAPublicKey, VerifyResult) {
	c.dsaCalls++
	return c.inner.FindDSAKey(keyID)
}

func TestVerifySignatureRSARejectsBadPrefixCheck(t *testing.T) {
	payload := []byte("some header and payload bytes")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	// wrong signHash16: verify must bail out before ever consulting lookup.
	badHash16 := [2]byte{0xde, 0xad}
	pkt := buildV3Packet(PubKeyAlgoRSA, HashAlgoMD5, testKeyID, badHash16, big.NewInt(1))

	lookup := &countingLookup{inner: &stubLookup{rsaKeys: map[[8]byte]*RSAPublicKey{
		testKeyID: {N: priv.N, E: bigFromInt(priv.E)},
	}}}

	report := VerifySignature(SigTagRSA, pkt, dig, lookup)
	require.Equal(t, VerifyBad, report.Result)
	require.Equal(t, 0, lookup.rsaCalls, "prefix-check rejection must not consult find_pubkey")
}

func TestVerifySignatureRSANoKeyWithoutLookup(t *testing.T) {
	payload := []byte("header and payload bytes")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	digest := md5.Sum(payload)
	hashedMessage := pkcs1v15Pad(priv.N.BitLen(), md5DigestInfoPrefix, digest[:])
	sig := new(big.Int).Exp(hashedMessage, priv.D, priv.N)

	var signHash16 [2]byte
	copy(signHash16[:], digest[:2])
	pkt := buildV3Packet(PubKeyAlgoRSA, HashAlgoMD5, testKeyID, signHash16, sig)

	report := VerifySignature(SigTagRSA, pkt, dig, nil)
	require.Equal(t, VerifyNoKey, report.Result)
}

func TestVerifySignatureRSARevokedKeyIsNotTrusted(t *testing.T) {
	payload := []byte("header and payload bytes for a revoked key")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	digest := md5.Sum(payload)
	hashedMessage := pkcs1v15Pad(priv.N.BitLen(), md5DigestInfoPrefix, digest[:])
	sig := new(big.Int).Exp(hashedMessage, priv.D, priv.N)

	var signHash16 [2]byte
	copy(signHash16[:], digest[:2])
	pkt := buildV3Packet(PubKeyAlgoRSA, HashAlgoMD5, testKeyID, signHash16, sig)

	lookup := &stubLookup{
		rsaKeys:     map[[8]byte]*RSAPublicKey{testKeyID: {N: priv.N, E: bigFromInt(priv.E)}},
		revokedKeys: map[[8]byte]bool{testKeyID: true},
	}

	report := VerifySignature(SigTagRSA, pkt, dig, lookup)
	require.Equal(t, VerifyNotTrusted, report.Result)
	require.Contains(t, report.Message, "NOTRUSTED")
}

func TestVerifySignatureDSAHeaderOnly(t *testing.T) {
	header := []byte("immutable metadata header region")
	dig := NewDig()
	dig.UpdateHeader(header)

	var priv dsa.PrivateKey
	require.NoError(t, dsa.GenerateParameters(&priv.Parameters, rand.Reader, dsa.L1024N160))
	require.NoError(t, dsa.GenerateKey(&priv, rand.Reader))

	ctx := NewDigestCtx(DigestSHA1)
	ctx.Update(header)
	digest := ctx.Final()

	hm := new(big.Int).SetBytes(digest)
	hm.Mod(hm, priv.Q)
	r, s, err := dsa.Sign(rand.Reader, &priv, hm.Bytes())
	require.NoError(t, err)

	var signHash16 [2]byte
	copy(signHash16[:], digest[:2])
	pkt := buildV3Packet(PubKeyAlgoDSA, HashAlgoSHA1, testKeyID, signHash16, r, s)

	lookup := &stubLookup{dsaKeys: map[[8]byte]*DSAPublicKey{
		testKeyID: {P: priv.P, Q: priv.Q, G: priv.G, Y: priv.Y},
	}}

	report := VerifySignature(SigTagDSA, pkt, dig, lookup)
	require.Equal(t, VerifyOK, report.Result)
	require.Contains(t, report.Message, "Header")
}

func TestVerifySignatureUnknownTag(t *testing.T) {
	dig := NewDig()
	report := VerifySignature(0xdeadbeef, nil, dig, nil)
	require.Equal(t, VerifyUnknown, report.Result)
}

func TestVerifySignatureLegacyLinuxEMD5Unsupported(t *testing.T) {
	dig := NewDig()
	report := VerifySignature(SigTagLEMD5_1, nil, dig, nil)
	require.Equal(t, VerifyUnknown, report.Result)
}

func TestVerifyAllSkipsRegionTagAndCoversEveryRecord(t *testing.T) {
	payload := []byte("whole package bytes")
	dig := NewDig()
	dig.UpdateHeaderPayload(payload)

	sig := NewSignature()
	sum := md5.Sum(payload)
	sig.AddBinaryValue(SigTagMD5, sum[:])
	sig.AddInt32Value(SigTagSize, []int32{int32(len(payload))})

	reports := VerifyAll(sig, dig, nil)
	require.Len(t, reports, 2)
	for _, r := range reports {
		require.NotEqual(t, uint32(TagHeaderSignatures), r.Tag)
		require.Equal(t, VerifyOK, r.Result)
	}
}
