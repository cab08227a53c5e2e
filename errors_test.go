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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerifyResultString(t *testing.T) {
	cases := map[VerifyResult]string{
		VerifyOK:         "OK",
		VerifyBad:        "BAD",
		VerifyNoKey:      "NOKEY",
		VerifyNotTrusted: "NOTRUSTED",
		VerifyUnknown:    "UNKNOWN",
		VerifyResult(99): "UNKNOWN",
	}
	for result, want := range cases {
		require.Equal(t, want, result.String())
	}
}

func TestSigErrorWrapsUnderlyingError(t *testing.T) {
	underlying := errors.New("boom")
	err := newSigError(KindFail, "something went wrong", underlying)

	require.Equal(t, KindFail, err.Kind)
	require.Contains(t, err.Error(), "something went wrong")
	require.Contains(t, err.Error(), "boom")
	require.True(t, errors.Is(err, underlying))
}

func TestSigErrorWithoutUnderlyingError(t *testing.T) {
	err := newSigError(KindBadSize, "size mismatch", nil)
	require.Equal(t, "rpmsig: size mismatch", err.Error())
	require.Nil(t, err.Unwrap())
}
