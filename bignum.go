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
	"encoding/hex"
	"math/big"
)

// bigFromInt converts a small positive int (such as an RSA public exponent,
// which crypto/rsa.PublicKey stores as a plain int) into a *big.Int.
func bigFromInt(n int) *big.Int {
	return big.NewInt(int64(n))
}

// md5DigestInfoPrefix is the DER encoding of the ASN.1 DigestInfo header
// ("3020300c06082a864886f70d020505000410") that precedes a raw 16-byte MD5
// hash inside a PKCS#1 v1.5 signature block.
var md5DigestInfoPrefix = mustDecodeHex("3020300c06082a864886f70d020505000410")

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// pkcs1v15Pad builds the PKCS#1 v1.5 signature block (RFC 2313 §8.1, block
// type 01) for an nbits-wide RSA modulus: 0x00 0x01 0xff...0xff 0x00
// <derPrefix> <digest>, and returns it as a big-endian integer. nbits is
// the actual signing key's modulus bit length (not a fixed assumption),
// since the padding length depends on it.
func pkcs1v15Pad(nbits int, derPrefix []byte, digest []byte) *big.Int {
	nb := (nbits + 7) / 8
	block := make([]byte, nb)
	block[0] = 0x00
	block[1] = 0x01
	tail := append(append([]byte{}, derPrefix...), digest...)
	padLen := nb - 3 - len(tail)
	for i := 0; i < padLen; i++ {
		block[2+i] = 0xff
	}
	block[2+padLen] = 0x00
	copy(block[3+padLen:], tail)
	return new(big.Int).SetBytes(block)
}

// RSAPublicKey is the subset of an RSA public key that rsaVerify needs:
// modulus and public exponent, as recovered from a keyring lookup.
type RSAPublicKey struct {
	N *big.Int
	E *big.Int
}

// DSAPublicKey is the subset of a DSA public key that dsaVerify needs.
type DSAPublicKey struct {
	P *big.Int
	Q *big.Int
	G *big.Int
	Y *big.Int
}

// rsaVerify computes sig^e mod n and compares it bit-exact against
// hashedMessage. It performs no hashing itself; hashedMessage must already
// be the fully prepared PKCS#1 v1.5 padded integer. Failure (including a
// nil key or signature) returns false; no exceptional condition is
// distinguished from "signature does not match".
func rsaVerify(pk *RSAPublicKey, hashedMessage *big.Int, sig *big.Int) bool {
	if pk == nil || pk.N == nil || pk.E == nil || hashedMessage == nil || sig == nil {
		return false
	}
	if sig.Sign() < 0 || sig.Cmp(pk.N) >= 0 {
		return false
	}
	decoded := new(big.Int).Exp(sig, pk.E, pk.N)
	return decoded.Cmp(hashedMessage) == 0
}

// dsaVerify performs standard DSA verification: given the domain parameters
// (p, q, g), the public key y, the pre-hashed message integer hm, and the
// signature pair (r, s), checks that
//
//	((g^(hm*w mod q) * y^(r*w mod q)) mod p) mod q == r
//
// where w = s^-1 mod q. hm must already be reduced to the hash output
// integer; this function performs no hashing.
func dsaVerify(pk *DSAPublicKey, hm *big.Int, r *big.Int, s *big.Int) bool {
	if pk == nil || pk.P == nil || pk.Q == nil || pk.G == nil || pk.Y == nil {
		return false
	}
	if hm == nil || r == nil || s == nil {
		return false
	}
	if r.Sign() <= 0 || r.Cmp(pk.Q) >= 0 {
		return false
	}
	if s.Sign() <= 0 || s.Cmp(pk.Q) >= 0 {
		return false
	}

	w := new(big.Int).ModInverse(s, pk.Q)
	if w == nil {
		return false
	}

	u1 := new(big.Int).Mul(hm, w)
	u1.Mod(u1, pk.Q)

	u2 := new(big.Int).Mul(r, w)
	u2.Mod(u2, pk.Q)

	v1 := new(big.Int).Exp(pk.G, u1, pk.P)
	v2 := new(big.Int).Exp(pk.Y, u2, pk.P)
	v := new(big.Int).Mul(v1, v2)
	v.Mod(v, pk.P)
	v.Mod(v, pk.Q)

	return v.Cmp(r) == 0
}
