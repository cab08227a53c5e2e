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
	"fmt"
	"io"
	"os"
)

// makeTempFile creates a private scratch file (used to hand the header
// region being signed to the external PGP/GPG subprocess as a named file
// argument) and returns it open for reading and writing. The caller is
// responsible for removing it once the subprocess has consumed it.
func makeTempFile(pattern string) (*os.File, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, newSigError(KindExec, "cannot create temporary file", err)
	}
	return f, nil
}

// removeTempFile closes and deletes a file created by makeTempFile. Errors
// are logged, not returned: a failed cleanup must never mask the result of
// the operation it was scratch space for.
func removeTempFile(f *os.File) {
	name := f.Name()
	if err := f.Close(); err != nil {
		log.WithError(err).WithField("file", name).Warn("cannot close temporary file")
	}
	if err := os.Remove(name); err != nil {
		log.WithError(err).WithField("file", name).Warn("cannot remove temporary file")
	}
}

// timedRead reads exactly len(buf) bytes from r, surfacing a short read as
// a SHORTREAD SigError rather than io.ErrUnexpectedEOF directly.
func timedRead(r io.Reader, buf []byte) error {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return newSigError(KindShortRead, fmt.Sprintf("expected %d bytes, got %d", len(buf), n), err)
	}
	return nil
}
