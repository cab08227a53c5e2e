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
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	shellwords "github.com/mattn/go-shellwords"
)

// PGPVersion identifies which generation of the "pgp" binary was detected
// at the configured %{_pgpbin} path, mirroring the original's pgpVersion enum. Only the PGP family
// varies by version; gpg has a single, stable command-line shape.
type PGPVersion int

const (
	PGPUnknown PGPVersion = iota
	PGP2
	PGP5
	PGPNotDetected
)

type pgpDetection struct {
	path    string
	version PGPVersion
}

var (
	pgpDetectOnce sync.Once
	pgpDetectResult pgpDetection
)

// detectPGPVersion finds the configured %{_pgpbin} binary and determines
// whether it is the PGP 2.x or PGP 5 command-line shape, caching the
// result for the process's lifetime (mirroring the original's static
// saved_pgp_version, replaced here with sync.Once since the original's
// single translation unit global had no concurrency to guard against, but
// Go code calling this from multiple goroutines should not re-stat the
// binary every time).
func detectPGPVersion(cfg *Config) pgpDetection {
	pgpDetectOnce.Do(func() {
		pgpbin := cfg.Expand("_pgpbin")
		if pgpbin == "" {
			pgpDetectResult = pgpDetection{version: PGPNotDetected}
			return
		}
		if _, err := os.Stat(pgpbin + "v"); err == nil {
			pgpDetectResult = pgpDetection{path: pgpbin, version: PGP5}
			return
		}
		if _, err := os.Stat(pgpbin); err == nil {
			pgpDetectResult = pgpDetection{path: pgpbin, version: PGP2}
			return
		}
		pgpDetectResult = pgpDetection{version: PGPNotDetected}
	})
	return pgpDetectResult
}

// buildSignCommand substitutes the transient __plaintext_filename and
// __signature_filename macros into a command template (the way the
// original implementation's addMacro/rpmExpand pair did) and splits the
// result into an argv, the way poptParseArgvString did.
func buildSignCommand(cmdTemplate, plaintextFile, sigFile string) ([]string, error) {
	expanded := strings.NewReplacer(
		"%{__plaintext_filename}", plaintextFile,
		"%{__signature_filename}", sigFile,
	).Replace(cmdTemplate)

	parser := shellwords.NewParser()
	argv, err := parser.Parse(expanded)
	if err != nil {
		return nil, newSigError(KindExec, "cannot parse sign command template", err)
	}
	if len(argv) == 0 {
		return nil, newSigError(KindExec, "empty sign command template", nil)
	}
	return argv, nil
}

// runSigner forks argv[0], handing passphrase to it via file descriptor 3
// (the PGPPASSFD=3 / GNUPGHOME convention both pgp and gpg honor), waits
// for it to exit, and reads back the detached signature it wrote to
// sigFile. sigFile is removed whether or not signing succeeded.
func runSigner(argv []string, env []string, passphrase string, sigFile string) ([]byte, error) {
	defer os.Remove(sigFile)

	passRead, passWrite, err := os.Pipe()
	if err != nil {
		return nil, newSigError(KindExec, "cannot create passphrase pipe", err)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = env
	cmd.ExtraFiles = []*os.File{passRead}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		passRead.Close()
		passWrite.Close()
		return nil, newSigError(KindExec, "cannot start "+filepath.Base(argv[0]), err)
	}
	passRead.Close()

	if _, err := passWrite.WriteString(passphrase + "\n"); err != nil {
		log.WithError(err).Warn("cannot write passphrase to signer")
	}
	passWrite.Close()

	if err := cmd.Wait(); err != nil {
		return nil, newSigError(KindSigGen, filepath.Base(argv[0])+" failed", err)
	}

	sigBytes, err := os.ReadFile(sigFile)
	if err != nil {
		return nil, newSigError(KindSigGen, "signer did not write a signature file", err)
	}
	log.WithField("bytes", len(sigBytes)).WithField("signer", filepath.Base(argv[0])).Debug("collected detached signature")
	return sigBytes, nil
}

// signWithPGP generates a V3 RSA/MD5 detached signature over file using the
// configured PGP 2.x or PGP 5 binary.
func signWithPGP(file, passphrase string, cfg *Config) ([]byte, error) {
	detected := detectPGPVersion(cfg)
	if detected.version == PGPNotDetected || detected.version == PGPUnknown {
		return nil, newSigError(KindExec, "no pgp binary configured (%_pgpbin)", nil)
	}

	var cmdTemplate string
	switch detected.version {
	case PGP2:
		cmdTemplate = cfg.PGPSignCmd
	case PGP5:
		cmdTemplate = cfg.Expand("__pgp5_sign_cmd")
	}

	sigFile := file + ".sig"
	argv, err := buildSignCommand(cmdTemplate, file, sigFile)
	if err != nil {
		return nil, err
	}

	env := append(os.Environ(), "PGPPASSFD=3")
	if path := cfg.Expand("_pgp_path"); path != "" {
		env = append(env, "PGPPATH="+path)
	}

	return runSigner(argv, env, passphrase, sigFile)
}

// signWithGPG generates a V3 DSA/SHA-1 detached signature over file using
// the configured gpg binary.
func signWithGPG(file, passphrase string, cfg *Config) ([]byte, error) {
	sigFile := file + ".sig"
	argv, err := buildSignCommand(cfg.GPGSignCmd, file, sigFile)
	if err != nil {
		return nil, err
	}

	env := os.Environ()
	if path := cfg.Expand("_gpg_path"); path != "" {
		env = append(env, "GNUPGHOME="+path)
	}

	return runSigner(argv, env, passphrase, sigFile)
}
