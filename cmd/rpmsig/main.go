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
	"fmt"
	"os"

	"github.com/ogier/pflag"

	"github.com/majewsky/rpmsig"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "verify":
		err = runVerify(os.Args[2:])
	case "sign":
		err = runSign(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		showError(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rpmsig verify [--keyring FILE] PACKAGE...")
	fmt.Fprintln(os.Stderr, "       rpmsig sign --tag TAG [--macros FILE] PACKAGE")
}

// showError reports every error aggregated by an ErrorCollector-style batch
// operation, not just the first, matching the teacher's own showError.
func showError(err error) {
	if collected, ok := err.(*errorCollector); ok {
		for _, e := range collected.errs {
			fmt.Fprintln(os.Stderr, "Error: "+e.Error())
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error: "+err.Error())
}

func runVerify(args []string) error {
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	keyringPath := fs.StringP("keyring", "k", "", "path to an OpenPGP keyring to verify signatures against")
	if err := fs.Parse(args); err != nil {
		return err
	}
	packages := fs.Args()
	if len(packages) == 0 {
		return fmt.Errorf("no package files given")
	}

	var lookup rpmsig.PubkeyLookup
	if *keyringPath != "" {
		kr, err := rpmsig.LoadKeyringFile(*keyringPath)
		if err != nil {
			return err
		}
		lookup = kr
	}

	errs := newErrorCollector()
	for _, path := range packages {
		if err := verifyOnePackage(path, lookup); err != nil {
			errs.add(fmt.Errorf("%s: %w", path, err))
		}
	}
	if errs.any() {
		return errs
	}
	return nil
}

func verifyOnePackage(path string, lookup rpmsig.PubkeyLookup) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pkg, err := rpmsig.ReadPackage(f)
	if err != nil {
		return err
	}

	reports := rpmsig.VerifyAll(pkg.SignatureHdr, pkg.Dig, lookup)
	ok := true
	for _, r := range reports {
		fmt.Printf("%s: %s\n", path, r.Message)
		if r.Result != rpmsig.VerifyOK {
			ok = false
		}
	}
	if !ok {
		return fmt.Errorf("signature verification failed")
	}
	return nil
}

func runSign(args []string) error {
	fs := pflag.NewFlagSet("sign", pflag.ContinueOnError)
	tagName := fs.StringP("tag", "t", "", "signature tag to add (size, md5, pgp, gpg, rsa, dsa, sha1)")
	macrosPath := fs.StringP("macros", "m", "", "path to a TOML macro file")
	passphrase := fs.StringP("passphrase", "p", "", "passphrase for the signing key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	packages := fs.Args()
	if len(packages) != 1 || *tagName == "" {
		return fmt.Errorf("usage: rpmsig sign --tag TAG PACKAGE")
	}

	tag, err := parseTagName(*tagName)
	if err != nil {
		return err
	}

	cfg, err := rpmsig.LoadConfig(*macrosPath)
	if err != nil {
		return err
	}

	sig := rpmsig.NewSignature()
	if err := rpmsig.AddSignature(sig, packages[0], tag, *passphrase, cfg); err != nil {
		return err
	}
	return rpmsig.WriteSignature(os.Stdout, sig)
}

func parseTagName(name string) (uint32, error) {
	switch name {
	case "size":
		return rpmsig.SigTagSize, nil
	case "md5":
		return rpmsig.SigTagMD5, nil
	case "pgp":
		return rpmsig.SigTagPGP, nil
	case "gpg":
		return rpmsig.SigTagGPG, nil
	case "rsa":
		return rpmsig.SigTagRSA, nil
	case "dsa":
		return rpmsig.SigTagDSA, nil
	case "sha1":
		return rpmsig.SigTagSHA1, nil
	default:
		return 0, fmt.Errorf("unrecognized tag %q", name)
	}
}
