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
	"encoding/binary"
	"fmt"
	"math/big"
)

// Public-key algorithm IDs, as assigned by RFC 4880 §9.1. Only the two
// algorithms this subsystem verifies are named.
const (
	PubKeyAlgoRSA = 1
	PubKeyAlgoDSA = 17
)

// Hash algorithm IDs, as assigned by RFC 4880 §9.4.
const (
	HashAlgoMD5  = 1
	HashAlgoSHA1 = 2
)

// signaturePacketTag is the OpenPGP packet tag for a "Signature Packet",
// RFC 4880 §5.2.
const signaturePacketTag = 2

// SignatureParams is a structured, read-only view of a parsed OpenPGP
// signature packet: exactly the fields the verification engine needs, and
// nothing about how the packet was framed or transported. It is produced
// by ParseSignaturePacket from the detached signature bytes embedded in a
// PGP/PGP5/GPG/RSA/DSA signature tag.
type SignatureParams struct {
	// Version is 3 or 4.
	Version int
	// SigType is the OpenPGP signature type (0x00 binary document, 0x01
	// canonical text document, etc).
	SigType int
	PubKeyAlgo int
	HashAlgo   int
	// SignHash16 is the leading two bytes of the signed hash value, stored
	// in the packet for a cheap rejection check before consulting a
	// keyring.
	SignHash16 [2]byte
	// SignID is the 8-byte key ID of the signer. The "short" key ID is
	// SignID[4:8].
	SignID [8]byte
	// Hashed holds the V4 hashed subpacket area only: neither the packet's
	// version/type/algorithm/length octets that precede it nor the 6-byte
	// trailer (see HashedTrailer) are included. Empty for V3 signatures,
	// which carry no hashed subpackets.
	Hashed []byte
	// RSASignature is the signature MPI for PubKeyAlgoRSA.
	RSASignature *big.Int
	// DSASigR, DSASigS are the signature MPI pair for PubKeyAlgoDSA.
	DSASigR *big.Int
	DSASigS *big.Int
}

// HashedTrailer returns the 6-byte V4 trailer (0x04 0xff <uint32
// hashed-material-length>) that a V4 signature appends to the hashed data
// before finalizing the digest, per RFC 4880 §5.2.4. streamedBytes is the
// number of plaintext bytes already fed into the digest (dig.nbytes); it is
// added to len(Hashed) to form the big-endian length field. Returns nil for
// V3 signatures, which have no such trailer.
func (p *SignatureParams) HashedTrailer(streamedBytes int) []byte {
	if p.Version != 4 {
		return nil
	}
	trailer := make([]byte, 6)
	trailer[0] = 0x04
	trailer[1] = 0xff
	binary.BigEndian.PutUint32(trailer[2:], uint32(streamedBytes+len(p.Hashed)))
	return trailer
}

// ParseSignaturePacket parses a single detached OpenPGP signature packet
// (tag 2), as embedded verbatim in a PGP/PGP5/GPG/RSA/DSA signature tag's
// binary value. Both the V3 (RFC 4880 §5.2.2, used by legacy PGP 2.x/5 and
// GnuPG in "rpm classic" mode) and V4 (§5.2.3) body formats are supported.
//
// This is a from-scratch binary-format reader, deliberately not built atop
// golang.org/x/crypto/openpgp/packet: that library's Signature/SignatureV3
// types keep their raw MPI material in an unexported representation, which
// makes them unsuitable for feeding the hand-built PKCS#1 v1.5 comparison
// spec.md's verification engine performs (see DESIGN.md).
func ParseSignaturePacket(data []byte) (*SignatureParams, error) {
	body, err := readPacketBody(data, signaturePacketTag)
	if err != nil {
		return nil, err
	}
	if len(body) < 1 {
		return nil, fmt.Errorf("rpmsig: empty signature packet")
	}

	switch body[0] {
	case 3:
		return parseSignatureV3(body)
	case 4:
		return parseSignatureV4(body)
	default:
		return nil, fmt.Errorf("rpmsig: unsupported signature packet version %d", body[0])
	}
}

// readPacketBody strips the OpenPGP packet framing (old- or new-format
// header, RFC 4880 §4.2) and returns the packet body, verifying that it
// carries the expected tag.
func readPacketBody(data []byte, wantTag int) ([]byte, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("rpmsig: empty packet")
	}
	first := data[0]
	if first&0x80 == 0 {
		return nil, fmt.Errorf("rpmsig: not an OpenPGP packet (bad tag byte 0x%02x)", first)
	}

	if first&0x40 != 0 {
		// new format: tag in bits 5-0, variable-length length octets
		tag := int(first & 0x3f)
		if tag != wantTag {
			return nil, fmt.Errorf("rpmsig: expected packet tag %d, got %d", wantTag, tag)
		}
		length, rest, err := readNewFormatLength(data[1:])
		if err != nil {
			return nil, err
		}
		if len(rest) < length {
			return nil, fmt.Errorf("rpmsig: truncated packet body")
		}
		return rest[:length], nil
	}

	// old format: tag in bits 5-2, length-type in bits 1-0
	tag := int((first >> 2) & 0x0f)
	if tag != wantTag {
		return nil, fmt.Errorf("rpmsig: expected packet tag %d, got %d", wantTag, tag)
	}
	lengthType := first & 0x03
	rest := data[1:]
	var length int
	switch lengthType {
	case 0:
		if len(rest) < 1 {
			return nil, fmt.Errorf("rpmsig: truncated packet length")
		}
		length = int(rest[0])
		rest = rest[1:]
	case 1:
		if len(rest) < 2 {
			return nil, fmt.Errorf("rpmsig: truncated packet length")
		}
		length = int(binary.BigEndian.Uint16(rest))
		rest = rest[2:]
	case 2:
		if len(rest) < 4 {
			return nil, fmt.Errorf("rpmsig: truncated packet length")
		}
		length = int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
	default:
		// indeterminate length: consume the rest of the buffer
		length = len(rest)
	}
	if len(rest) < length {
		return nil, fmt.Errorf("rpmsig: truncated packet body")
	}
	return rest[:length], nil
}

func readNewFormatLength(data []byte) (length int, rest []byte, err error) {
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("rpmsig: truncated packet length")
	}
	first := data[0]
	switch {
	case first < 192:
		return int(first), data[1:], nil
	case first < 224:
		if len(data) < 2 {
			return 0, nil, fmt.Errorf("rpmsig: truncated packet length")
		}
		return (int(first)-192)<<8 + int(data[1]) + 192, data[2:], nil
	case first == 255:
		if len(data) < 5 {
			return 0, nil, fmt.Errorf("rpmsig: truncated packet length")
		}
		return int(binary.BigEndian.Uint32(data[1:5])), data[5:], nil
	default:
		return 0, nil, fmt.Errorf("rpmsig: partial body lengths are not supported")
	}
}

// readMPI reads one RFC 4880 §3.2 multiprecision integer: a two-octet
// bit-count prefix followed by ceil(bits/8) big-endian bytes.
func readMPI(data []byte) (value *big.Int, rest []byte, err error) {
	if len(data) < 2 {
		return nil, nil, fmt.Errorf("rpmsig: truncated MPI length")
	}
	bits := int(binary.BigEndian.Uint16(data))
	nBytes := (bits + 7) / 8
	data = data[2:]
	if len(data) < nBytes {
		return nil, nil, fmt.Errorf("rpmsig: truncated MPI body")
	}
	return new(big.Int).SetBytes(data[:nBytes]), data[nBytes:], nil
}

func parseSignatureV3(body []byte) (*SignatureParams, error) {
	// version(1) hashedlen(1)=5 sigtype(1) created(4) keyid(8) pubalgo(1) hashalgo(1) signhash16(2) MPIs...
	if len(body) < 1+1+1+4+8+1+1+2 {
		return nil, fmt.Errorf("rpmsig: truncated V3 signature packet")
	}
	p := &SignatureParams{Version: 3}
	pos := 1
	hashedLen := int(body[pos])
	pos++
	if hashedLen != 5 {
		return nil, fmt.Errorf("rpmsig: unexpected V3 hashed-material length %d", hashedLen)
	}
	p.SigType = int(body[pos])
	pos += 1 + 4 // sigtype already read, skip 4-byte creation time
	copy(p.SignID[:], body[pos:pos+8])
	pos += 8
	p.PubKeyAlgo = int(body[pos])
	pos++
	p.HashAlgo = int(body[pos])
	pos++
	copy(p.SignHash16[:], body[pos:pos+2])
	pos += 2

	return finishParsingMPIs(p, body[pos:])
}

func parseSignatureV4(body []byte) (*SignatureParams, error) {
	// version(1) sigtype(1) pubalgo(1) hashalgo(1) hashedlen(2) hasheddata(n) unhashedlen(2) unhasheddata(m) signhash16(2) MPIs...
	if len(body) < 1+1+1+1+2 {
		return nil, fmt.Errorf("rpmsig: truncated V4 signature packet")
	}
	p := &SignatureParams{Version: 4}
	pos := 1
	p.SigType = int(body[pos])
	pos++
	p.PubKeyAlgo = int(body[pos])
	pos++
	p.HashAlgo = int(body[pos])
	pos++

	hashedLen := int(binary.BigEndian.Uint16(body[pos:]))
	pos += 2
	if len(body) < pos+hashedLen {
		return nil, fmt.Errorf("rpmsig: truncated V4 hashed subpackets")
	}
	p.Hashed = body[pos : pos+hashedLen]
	pos += hashedLen

	if len(body) < pos+2 {
		return nil, fmt.Errorf("rpmsig: truncated V4 unhashed length")
	}
	unhashedLen := int(binary.BigEndian.Uint16(body[pos:]))
	pos += 2
	if len(body) < pos+unhashedLen {
		return nil, fmt.Errorf("rpmsig: truncated V4 unhashed subpackets")
	}
	unhashed := body[pos : pos+unhashedLen]
	pos += unhashedLen

	if len(body) < pos+2 {
		return nil, fmt.Errorf("rpmsig: truncated V4 signhash16")
	}
	copy(p.SignHash16[:], body[pos:pos+2])
	pos += 2

	if keyID, ok := issuerKeyIDFromSubpackets(p.Hashed); ok {
		p.SignID = keyID
	} else if keyID, ok := issuerKeyIDFromSubpackets(unhashed); ok {
		p.SignID = keyID
	}

	return finishParsingMPIs(p, body[pos:])
}

func finishParsingMPIs(p *SignatureParams, mpiData []byte) (*SignatureParams, error) {
	var err error
	switch p.PubKeyAlgo {
	case PubKeyAlgoRSA:
		p.RSASignature, _, err = readMPI(mpiData)
		if err != nil {
			return nil, fmt.Errorf("rpmsig: cannot read RSA signature MPI: %w", err)
		}
	case PubKeyAlgoDSA:
		p.DSASigR, mpiData, err = readMPI(mpiData)
		if err != nil {
			return nil, fmt.Errorf("rpmsig: cannot read DSA r MPI: %w", err)
		}
		p.DSASigS, _, err = readMPI(mpiData)
		if err != nil {
			return nil, fmt.Errorf("rpmsig: cannot read DSA s MPI: %w", err)
		}
	default:
		return nil, fmt.Errorf("rpmsig: unsupported public-key algorithm %d", p.PubKeyAlgo)
	}
	return p, nil
}

// issuerSubpacketType is the OpenPGP subpacket type for "Issuer", RFC 4880
// §5.2.3.5.
const issuerSubpacketType = 16

// issuerKeyIDFromSubpackets scans a V4 subpacket area (hashed or unhashed)
// for an Issuer subpacket and returns its 8-byte key ID.
func issuerKeyIDFromSubpackets(data []byte) (keyID [8]byte, ok bool) {
	for len(data) > 0 {
		length, rest, err := readNewFormatLength(data)
		if err != nil || length < 1 || len(rest) < length {
			return keyID, false
		}
		subpacket := rest[:length]
		subType := subpacket[0] & 0x7f
		if subType == issuerSubpacketType && len(subpacket) >= 9 {
			copy(keyID[:], subpacket[1:9])
			return keyID, true
		}
		data = rest[length:]
	}
	return keyID, false
}
