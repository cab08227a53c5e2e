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
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeadRoundTrip(t *testing.T) {
	lead, err := NewLead("foo-1.0-1.x86_64", 1)
	require.NoError(t, err)

	data := lead.ToBinary()
	require.Len(t, data, LeadSize)

	got, err := ReadLead(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, lead, got)
	require.Equal(t, uint16(SignatureTypeHeaderSig), got.SignatureType)
}

func TestNewLeadRejectsOverlongNVR(t *testing.T) {
	_, err := NewLead(strings.Repeat("x", 66), 1)
	require.Error(t, err)
}

func TestReadLeadRejectsBadMagic(t *testing.T) {
	data := make([]byte, LeadSize)
	_, err := ReadLead(bytes.NewReader(data))
	require.Error(t, err)
}

func TestReadLeadFromStreamingReader(t *testing.T) {
	// ReadLead must work directly off something that is not a
	// *bytes.Reader, since the real caller is an *os.File.
	lead, err := NewLead("bar-2.0-1.noarch", 2)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	go func() {
		pw.Write(lead.ToBinary())
		pw.Close()
	}()
	got, err := ReadLead(pr)
	require.NoError(t, err)
	require.Equal(t, lead, got)
}
