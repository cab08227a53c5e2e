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
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the fixed set of macro names the signing path consults to
// locate and invoke an external PGP/GPG binary. Unlike real rpm's
// recursive %{...} macro language, only these named macros are supported;
// Expand does plain name lookup, not template substitution.
type Config struct {
	Signature string `toml:"_signature"`
	PGPBin    string `toml:"_pgpbin"`
	PGPPath   string `toml:"_pgp_path"`
	GPGPath   string `toml:"_gpg_path"`
	PGPName   string `toml:"_pgp_name"`
	GPGName   string `toml:"_gpg_name"`

	PGPSignCmd  string `toml:"__pgp_sign_cmd"`
	PGP5SignCmd string `toml:"__pgp5_sign_cmd"`
	GPGSignCmd  string `toml:"__gpg_sign_cmd"`

	PGPCheckPassCmd  string `toml:"__pgp_check_password_cmd"`
	PGP5CheckPassCmd string `toml:"__pgp5_check_password_cmd"`
	GPGCheckPassCmd  string `toml:"__gpg_check_password_cmd"`
}

// LoadConfig reads a macro table from a TOML file. A missing file is not an
// error; it yields a zero-value Config (every macro expands to "").
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("rpmsig: cannot parse macro file %s: %w", path, err)
	}
	return cfg, nil
}

// Expand looks up a single fixed macro name, satisfying the injected
// expand_macro collaborator the signer driver uses to build its PGP/GPG
// command line. Unknown names expand to "".
func (c *Config) Expand(name string) string {
	switch name {
	case "_signature":
		return c.Signature
	case "_pgpbin":
		return c.PGPBin
	case "_pgp_path":
		return c.PGPPath
	case "_gpg_path":
		return c.GPGPath
	case "_pgp_name":
		return c.PGPName
	case "_gpg_name":
		return c.GPGName
	case "__pgp_sign_cmd":
		return c.PGPSignCmd
	case "__pgp5_sign_cmd":
		return c.PGP5SignCmd
	case "__gpg_sign_cmd":
		return c.GPGSignCmd
	case "__pgp_check_password_cmd":
		return c.PGPCheckPassCmd
	case "__pgp5_check_password_cmd":
		return c.PGP5CheckPassCmd
	case "__gpg_check_password_cmd":
		return c.GPGCheckPassCmd
	default:
		return ""
	}
}
