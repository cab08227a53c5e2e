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
	"fmt"
	"io"
)

// LeadMagic is the four magic bytes that open every RPM file.
var LeadMagic = [4]byte{0xed, 0xab, 0xee, 0xdb}

// LeadSize is the fixed, on-disk size of the Lead structure in bytes.
const LeadSize = 96

// SignatureType values recognized in Lead.SignatureType. Only HeaderSig is
// produced by modern packages; the others are read-path compatibility
// states handled by ReadSignature.
const (
	SignatureTypeNone        = 0
	SignatureTypePGP262_1024 = 1
	SignatureTypeMD5         = 3
	SignatureTypeMD5PGP      = 4
	SignatureTypeHeaderSig   = 5
	SignatureTypeDisabled    = -1
)

// Lead represents the RPM lead: the first, fixed-size header of an RPM
// file, preceding the signature header. Defined in [LSB, 22.2.1].
type Lead struct {
	Magic              [4]byte
	Version            [2]byte
	Type               uint16
	Architecture       uint16
	NameVersionRelease [66]byte
	OperatingSystem    uint16
	SignatureType      uint16
	Reserved           [16]byte
}

// NewLead creates a lead announcing a header-only signature section
// (SignatureType 5) for the given name-version-release string and
// architecture ID.
func NewLead(nvr string, archID uint16) (*Lead, error) {
	if len(nvr) > 65 {
		return nil, fmt.Errorf("rpmsig: name-version-release string %q exceeds 65 bytes", nvr)
	}

	lead := &Lead{
		Magic:           LeadMagic,
		Version:         [2]byte{0x03, 0x00},
		Type:            0, // binary package
		Architecture:    archID,
		OperatingSystem: 1, // Linux
		SignatureType:   SignatureTypeHeaderSig,
	}
	copy(lead.NameVersionRelease[:], nvr)
	// NameVersionRelease must be NUL-terminated; copy() already zero-pads
	// the rest of the array, so nothing else to do here.
	return lead, nil
}

// ToBinary returns the big-endian binary encoding of this lead.
func (l *Lead) ToBinary() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, l)
	return buf.Bytes()
}

// ReadLead parses a Lead from the first LeadSize bytes of r and validates
// its magic.
func ReadLead(r io.Reader) (*Lead, error) {
	var lead Lead
	if err := binary.Read(r, binary.BigEndian, &lead); err != nil {
		return nil, fmt.Errorf("rpmsig: cannot read lead: %w", err)
	}
	if lead.Magic != LeadMagic {
		return nil, fmt.Errorf("rpmsig: bad lead magic %x", lead.Magic)
	}
	return &lead, nil
}

// appendAlignedTo8Byte appends b to a after padding a with zero bytes so
// that the result starts at an 8-byte boundary. According to [LSB, 22.2.2],
// "A Header structure shall be aligned to an 8 byte boundary."
func appendAlignedTo8Byte(a []byte, b []byte) []byte {
	result := a
	for len(result)%8 != 0 {
		result = append(result, 0x00)
	}
	return append(result, b...)
}
