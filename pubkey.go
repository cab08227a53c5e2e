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
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/openpgp"
)

// PubkeyLookup is the find_pubkey collaborator the verification engine
// consults for every signature that passes the signhash16 check; results
// are not cached. Callers
// that have no keyring configured (or that intentionally want every
// signature to resolve NOKEY) may pass a nil PubkeyLookup.
//
// The returned VerifyResult mirrors find_pubkey's own three-way verdict:
// VerifyOK with a non-nil key, VerifyNoKey when no matching key is known,
// or VerifyNotTrusted when a matching key was found but must not be used
// (e.g. it carries a revocation signature). Any other VerifyResult is
// treated as VerifyNoKey by callers.
type PubkeyLookup interface {
	// FindRSAKey looks up the RSA public key whose 8-byte key ID is keyID.
	FindRSAKey(keyID [8]byte) (key *RSAPublicKey, result VerifyResult)
	// FindDSAKey looks up the DSA public key whose 8-byte key ID is keyID.
	FindDSAKey(keyID [8]byte) (key *DSAPublicKey, result VerifyResult)
}

// Keyring is a PubkeyLookup backed by an in-memory OpenPGP keyring, as
// loaded from a "pubring.gpg"-style file via LoadKeyring. Every entity in
// the ring is considered trusted unless it carries a revocation signature
// (see entityRevoked); this package has no concept of a web of trust,
// matching rpm's own historical behavior (a key present in the configured
// keyring is implicitly trusted).
type Keyring struct {
	entities openpgp.EntityList
}

// LoadKeyring reads an OpenPGP keyring (in the binary, non-armored format
// openpgp.ReadKeyRing expects) from r.
func LoadKeyring(r io.Reader) (*Keyring, error) {
	entities, err := openpgp.ReadKeyRing(r)
	if err != nil {
		return nil, fmt.Errorf("rpmsig: cannot read keyring: %w", err)
	}
	return &Keyring{entities: entities}, nil
}

// LoadKeyringFile opens and reads a keyring file at path.
func LoadKeyringFile(path string) (*Keyring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rpmsig: cannot open keyring file: %w", err)
	}
	defer f.Close()
	return LoadKeyring(f)
}

// keysByID returns every key (primary or subkey) in the ring whose key ID
// equals the given full 8-byte identifier. The "short" 4-byte form is not
// matched.
func (k *Keyring) keysByID(keyID [8]byte) []openpgp.Key {
	id64 := binary.BigEndian.Uint64(keyID[:])
	return k.entities.KeysById(id64)
}

// FindRSAKey implements PubkeyLookup.
func (k *Keyring) FindRSAKey(keyID [8]byte) (*RSAPublicKey, VerifyResult) {
	for _, candidate := range k.keysByID(keyID) {
		pub, ok := candidate.PublicKey.PublicKey.(*rsa.PublicKey)
		if !ok {
			continue
		}
		if entityRevoked(candidate.Entity) {
			return nil, VerifyNotTrusted
		}
		return &RSAPublicKey{
			N: pub.N,
			E: bigFromInt(pub.E),
		}, VerifyOK
	}
	return nil, VerifyNoKey
}

// FindDSAKey implements PubkeyLookup.
func (k *Keyring) FindDSAKey(keyID [8]byte) (*DSAPublicKey, VerifyResult) {
	for _, candidate := range k.keysByID(keyID) {
		pub, ok := candidate.PublicKey.PublicKey.(*dsa.PublicKey)
		if !ok {
			continue
		}
		if entityRevoked(candidate.Entity) {
			return nil, VerifyNotTrusted
		}
		return &DSAPublicKey{
			P: pub.P,
			Q: pub.Q,
			G: pub.G,
			Y: pub.Y,
		}, VerifyOK
	}
	return nil, VerifyNoKey
}

// entityRevoked reports whether entity's primary key or any of its
// identities carries an explicit revocation signature, matching
// find_pubkey's NOTTRUSTED case: the key is known but must not be trusted.
func entityRevoked(entity *openpgp.Entity) bool {
	if len(entity.Revocations) > 0 {
		return true
	}
	for _, identity := range entity.Identities {
		if len(identity.Revocations) > 0 {
			return true
		}
	}
	return false
}
