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
	"crypto"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/packet"
)

// signDetached builds a real V4 RSA/SHA1 signature packet over message with
// a freshly generated entity, using the real OpenPGP library's own encoder,
// so the parser in packet.go is exercised against bytes it did not produce
// itself.
func signDetached(t *testing.T, entity *openpgp.Entity, message []byte) []byte {
	t.Helper()

	sig := &packet.Signature{
		SigType:      packet.SigTypeBinary,
		PubKeyAlgo:   packet.PubKeyAlgoRSA,
		Hash:         crypto.SHA1,
		IssuerKeyId:  &entity.PrimaryKey.KeyId,
		CreationTime: time.Now(),
	}
	h := crypto.SHA1.New()
	h.Write(message)
	require.NoError(t, sig.Sign(h, entity.PrivateKey, nil))

	var buf bytes.Buffer
	require.NoError(t, sig.Serialize(&buf))
	return buf.Bytes()
}

func TestParseSignaturePacketV4RSA(t *testing.T) {
	entity := newTestEntity(t)
	message := []byte("header bytes to be signed")

	raw := signDetached(t, entity, message)

	parsed, err := ParseSignaturePacket(raw)
	require.NoError(t, err)
	require.Equal(t, 4, parsed.Version)
	require.Equal(t, PubKeyAlgoRSA, parsed.PubKeyAlgo)
	require.Equal(t, HashAlgoSHA1, parsed.HashAlgo)
	require.NotNil(t, parsed.RSASignature)

	var wantID [8]byte
	id := entity.PrimaryKey.KeyId
	for i := 0; i < 8; i++ {
		wantID[7-i] = byte(id >> (8 * uint(i)))
	}
	require.Equal(t, wantID, parsed.SignID)

	// cross-check against a fresh hash computed the same way
	// HashedTrailer assembles it for V4 signatures.
	h := crypto.SHA1.New()
	h.Write(message)
	h.Write(parsed.Hashed)
	h.Write(parsed.HashedTrailer(len(message)))
	digest := h.Sum(nil)
	require.Equal(t, digest[0], parsed.SignHash16[0])
	require.Equal(t, digest[1], parsed.SignHash16[1])
}

func TestParseSignaturePacketRejectsGarbage(t *testing.T) {
	_, err := ParseSignaturePacket([]byte{0x00, 0x01, 0x02})
	require.Error(t, err)
}

func TestParseSignaturePacketRejectsWrongTag(t *testing.T) {
	// old-format packet, tag 9 (not a signature packet), length-type 0,
	// one-byte body
	data := []byte{0xA4, 0x01, 0x00}
	_, err := ParseSignaturePacket(data)
	require.Error(t, err)
}
