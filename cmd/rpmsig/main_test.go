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

package main

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/majewsky/rpmsig"
	"github.com/majewsky/rpmsig/internal/rpmtestdata"
)

func TestParseTagNameKnownTags(t *testing.T) {
	cases := map[string]uint32{
		"size": rpmsig.SigTagSize,
		"md5":  rpmsig.SigTagMD5,
		"pgp":  rpmsig.SigTagPGP,
		"gpg":  rpmsig.SigTagGPG,
		"rsa":  rpmsig.SigTagRSA,
		"dsa":  rpmsig.SigTagDSA,
		"sha1": rpmsig.SigTagSHA1,
	}
	for name, want := range cases {
		got, err := parseTagName(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestParseTagNameUnknown(t *testing.T) {
	_, err := parseTagName("rot13")
	require.Error(t, err)
}

func TestErrorCollectorAggregatesAndJoins(t *testing.T) {
	c := newErrorCollector()
	require.False(t, c.any())

	c.add(nil)
	require.False(t, c.any(), "adding nil must not count as an error")

	c.add(errors.New("first"))
	c.add(errors.New("second"))
	require.True(t, c.any())
	require.Equal(t, "first; second", c.Error())
}

func buildSignedFixture(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("xz"); err != nil {
		t.Skip("xz not available on PATH")
	}

	dir := t.TempDir()
	hdr := rpmtestdata.BuildMetadataHeader("hello-1.0-1")
	hpPath, err := rpmtestdata.WriteHeaderPayloadFile(dir, hdr, []rpmtestdata.File{
		{Name: "./usr/bin/hello", Content: []byte("echo hello\n"), Mode: 0100755},
	})
	require.NoError(t, err)

	sig := rpmsig.NewSignature()
	require.NoError(t, rpmsig.AddSignature(sig, hpPath, rpmsig.SigTagSize, "", &rpmsig.Config{}))
	require.NoError(t, rpmsig.AddSignature(sig, hpPath, rpmsig.SigTagMD5, "", &rpmsig.Config{}))

	lead, err := rpmsig.NewLead("hello-1.0-1", 1)
	require.NoError(t, err)

	pkgPath, err := rpmtestdata.AssemblePackage(dir, lead, sig, hpPath)
	require.NoError(t, err)
	return pkgPath
}

func TestVerifyOnePackageSucceedsOnWellFormedFixture(t *testing.T) {
	pkgPath := buildSignedFixture(t)
	require.NoError(t, verifyOnePackage(pkgPath, nil))
}

func TestVerifyOnePackageFailsOnCorruptPayload(t *testing.T) {
	pkgPath := buildSignedFixture(t)

	data, err := os.ReadFile(pkgPath)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(pkgPath, data, 0o644))

	err = verifyOnePackage(pkgPath, nil)
	require.Error(t, err)
}

func TestRunVerifyAggregatesErrorsAcrossPackages(t *testing.T) {
	good := buildSignedFixture(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist.rpm")

	err := runVerify([]string{good, missing})
	require.Error(t, err)

	var collected *errorCollector
	require.ErrorAs(t, err, &collected)
	require.Len(t, collected.errs, 1)
}
