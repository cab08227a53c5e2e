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

// HeaderMagic is the 8-byte sequence ([4]byte magic + 4 reserved bytes)
// that prefixes a header when serialized in "magic yes" mode. Signature
// headers are always written this way; SHA1 header digests are computed
// over this magic prepended to the metadata header's immutable region.
var HeaderMagic = [8]byte{0x8e, 0xad, 0xe8, 0x01, 0x00, 0x00, 0x00, 0x00}

// Header represents an RPM header structure (as used in both the signature
// section and the metadata header section), as defined in [LSB, 25.2.2].
type Header struct {
	Records      []*HeaderIndexRecord
	Data         []byte
	hasI18NTable bool
}

// HeaderIndexRecord represents an index record in an RPM header structure,
// i.e. a single key-value entry. The actual value is stored in the
// associated Header.Data field. Defined in [LSB, 25.2.2.2].
type HeaderIndexRecord struct {
	Tag    uint32
	Type   uint32
	Offset uint32
	Count  uint32
}

// headerRecord is the binary representation of the fixed-size part of a
// header structure. [LSB, 25.2.2.1]
type headerRecord struct {
	Magic            [4]byte
	Reserved         [4]byte
	IndexRecordCount uint32
	DataSize         uint32
}

// ToBinary serializes the given header, prefixed by HeaderMagic and with a
// leading "region" index record marking the whole header as immutable.
//
// A "region" is defined nowhere in any kind of spec for this format (i.e.
// neither in [LSB] nor [RPM]), but it's mentioned in the reference
// implementation's validations. A region tag marks a set of header tags
// and data that are to be considered immutable, i.e. they may be used for
// validation purposes such as calculating hash digests and signatures.
// Regions always seem to span the whole header structure, so everything is
// marked immutable.
//
// The index record for the region tag is at the *start* of the index
// record array, and its data is located at the *end* of the data area. The
// data is another index record that (using a negative offset into the data
// area) points back at the original index record.
func (hdr *Header) ToBinary(regionTag uint32) []byte {
	var buf bytes.Buffer

	actualDataSize := uint32(len(hdr.Data))
	actualRecordCount := uint32(len(hdr.Records))
	binary.Write(&buf, binary.BigEndian, &headerRecord{
		Magic:            [4]byte{HeaderMagic[0], HeaderMagic[1], HeaderMagic[2], HeaderMagic[3]},
		IndexRecordCount: actualRecordCount + 1, // +1 for the region tag
		DataSize:         actualDataSize + 16,   // +16 for the region tag
	})

	// index record for the region tag
	binary.Write(&buf, binary.BigEndian, &HeaderIndexRecord{
		Tag:    regionTag,
		Type:   TypeBin,
		Offset: actualDataSize,
		Count:  16,
	})

	// the actual index records
	for _, ir := range hdr.Records {
		binary.Write(&buf, binary.BigEndian, ir)
	}

	// data, followed by the region tag's own (back-pointing) data
	buf.Write(hdr.Data)
	binary.Write(&buf, binary.BigEndian, &HeaderIndexRecord{
		Tag:    regionTag,
		Type:   TypeBin,
		Offset: (0 - (actualRecordCount + 1)) * 16, // negative offset, two's complement via uint32 wraparound
		Count:  16,
	})

	return buf.Bytes()
}

// RawBinary serializes this header exactly as stored: the fixed
// headerRecord, the index records in Records (verbatim, including any
// region-tag entry already present from a prior ReadHeader), and the raw
// Data blob. Unlike ToBinary, it does not synthesize a new region tag;
// use it to re-emit a header that was read (and still carries its
// original region tag and back-pointer) rather than one being built fresh
// from AddXValue calls.
func (hdr *Header) RawBinary() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, &headerRecord{
		Magic:            [4]byte{HeaderMagic[0], HeaderMagic[1], HeaderMagic[2], HeaderMagic[3]},
		IndexRecordCount: uint32(len(hdr.Records)),
		DataSize:         uint32(len(hdr.Data)),
	})
	for _, ir := range hdr.Records {
		binary.Write(&buf, binary.BigEndian, ir)
	}
	buf.Write(hdr.Data)
	return buf.Bytes()
}

// SizeOf returns the number of bytes ToBinary would produce for this
// header, without actually serializing it. For a header built with the
// Add*Value methods that is its on-disk size; for a header returned by
// ReadHeader, which already carries its region tag, ToBinary (and so
// SizeOf) counts a second region tag, and len(RawBinary()) is the on-disk
// size.
func (hdr *Header) SizeOf() int {
	// 16 (headerRecord, incl. magic+reserved) + 16*(records+1 for the region
	// tag) + data + 16 (region tag's back-pointing data)
	return 16 + 16*(len(hdr.Records)+1) + len(hdr.Data) + 16
}

// ReadHeader parses a header previously written by ToBinary: the fixed
// headerRecord (which starts with the 8-byte magic), that many index
// records, and a trailing data blob. The leading region-tag index record is
// kept in Records like any other entry, and its back-pointing counterpart
// stays at the end of Data; callers that need only the "real" tags should skip the region tag
// (TagHeaderSignatures / TagHeaderImmutable).
func ReadHeader(r io.Reader) (*Header, error) {
	var rec headerRecord
	if err := binary.Read(r, binary.BigEndian, &rec); err != nil {
		return nil, fmt.Errorf("rpmsig: cannot read header record: %w", err)
	}
	if rec.Magic[0] != HeaderMagic[0] || rec.Magic[1] != HeaderMagic[1] ||
		rec.Magic[2] != HeaderMagic[2] || rec.Magic[3] != HeaderMagic[3] {
		return nil, fmt.Errorf("rpmsig: bad header magic %x", rec.Magic)
	}

	records := make([]*HeaderIndexRecord, rec.IndexRecordCount)
	for i := range records {
		ir := &HeaderIndexRecord{}
		if err := binary.Read(r, binary.BigEndian, ir); err != nil {
			return nil, fmt.Errorf("rpmsig: cannot read index record %d: %w", i, err)
		}
		records[i] = ir
	}

	data := make([]byte, rec.DataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("rpmsig: cannot read header data: %w", err)
	}

	return &Header{Records: records, Data: data}, nil
}

// AddBinaryValue adds a value of type TypeBin to this header.
func (hdr *Header) AddBinaryValue(tag uint32, data []byte) {
	hdr.Records = append(hdr.Records, &HeaderIndexRecord{
		Tag:    tag,
		Type:   TypeBin,
		Offset: uint32(len(hdr.Data)),
		Count:  uint32(len(data)),
	})
	hdr.Data = append(hdr.Data, data...)
}

// AddInt32Value adds a value of type TypeInt32 to this header.
func (hdr *Header) AddInt32Value(tag uint32, data []int32) {
	// align to 4 bytes
	for len(hdr.Data)%4 != 0 {
		hdr.Data = append(hdr.Data, 0x00)
	}

	hdr.Records = append(hdr.Records, &HeaderIndexRecord{
		Tag:    tag,
		Type:   TypeInt32,
		Offset: uint32(len(hdr.Data)),
		Count:  uint32(len(data)),
	})
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, data)
	hdr.Data = append(hdr.Data, buf.Bytes()...)
}

// AddStringValue adds a value of type TypeString or TypeI18NString to this
// header.
func (hdr *Header) AddStringValue(tag uint32, data string, i18n bool) {
	var recordType uint32 = TypeString
	if i18n {
		recordType = TypeI18NString
		// I18N strings require an I18N table listing the available locales.
		if !hdr.hasI18NTable {
			hdr.AddStringArrayValue(TagHeaderI18NTable, []string{"C"})
			hdr.hasI18NTable = true
		}
	}

	hdr.Records = append(hdr.Records, &HeaderIndexRecord{
		Tag:    tag,
		Type:   recordType,
		Offset: uint32(len(hdr.Data)),
		Count:  1,
	})
	hdr.Data = append(append(hdr.Data, []byte(data)...), 0x00)
}

// AddStringArrayValue adds a value of type TypeStringArray to this header.
func (hdr *Header) AddStringArrayValue(tag uint32, data []string) {
	hdr.Records = append(hdr.Records, &HeaderIndexRecord{
		Tag:    tag,
		Type:   TypeStringArray,
		Offset: uint32(len(hdr.Data)),
		Count:  uint32(len(data)),
	})
	for _, str := range data {
		hdr.Data = append(append(hdr.Data, []byte(str)...), 0x00)
	}
}

// findRecord returns the index record for the given tag, or nil if absent.
func (hdr *Header) findRecord(tag uint32) *HeaderIndexRecord {
	for _, ir := range hdr.Records {
		if ir.Tag == tag {
			return ir
		}
	}
	return nil
}

// BinaryValue returns the raw bytes stored for tag, and whether the tag is
// present at all.
func (hdr *Header) BinaryValue(tag uint32) ([]byte, bool) {
	ir := hdr.findRecord(tag)
	if ir == nil {
		return nil, false
	}
	end := ir.Offset + ir.Count
	if int(end) > len(hdr.Data) {
		return nil, false
	}
	return hdr.Data[ir.Offset:end], true
}

// Int32Value returns the first TypeInt32 value stored for tag, and whether
// the tag is present with at least one element.
func (hdr *Header) Int32Value(tag uint32) (int32, bool) {
	ir := hdr.findRecord(tag)
	if ir == nil || ir.Count == 0 {
		return 0, false
	}
	end := int(ir.Offset) + 4
	if end > len(hdr.Data) {
		return 0, false
	}
	return int32(binary.BigEndian.Uint32(hdr.Data[ir.Offset:end])), true
}

// StringValue returns the NUL-terminated string stored for tag, and
// whether the tag is present.
func (hdr *Header) StringValue(tag uint32) (string, bool) {
	ir := hdr.findRecord(tag)
	if ir == nil {
		return "", false
	}
	start := int(ir.Offset)
	if start > len(hdr.Data) {
		return "", false
	}
	end := bytes.IndexByte(hdr.Data[start:], 0)
	if end < 0 {
		return "", false
	}
	return string(hdr.Data[start : start+end]), true
}
