// Package config loads the CLI driver's optional on-disk defaults: the
// pieces of the §6.4 flag surface a caller would rather pin once in a
// file than repeat on every invocation.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"dauphin/internal/errkind"
)

// Driver holds the on-disk defaults the CLI flags override when set
// explicitly. When no file is present, Load returns Default.
type Driver struct {
	OptLevel   int    `yaml:"opt_level"`
	Verbose    int    `yaml:"verbose"`
	Profile    bool   `yaml:"profile"`
	ProfileDir string `yaml:"profile_dir"`
}

// Default is what a driver config reverts to when nothing is loaded.
var Default = Driver{OptLevel: 1, Verbose: 0, Profile: false, ProfileDir: "."}

// Load reads a YAML driver config from path. A missing file is not an
// error — it just means the caller should use Default — but a present,
// malformed one is.
func Load(path string) (Driver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default, nil
		}
		return Driver{}, errkind.With(errkind.OS, errors.Wrapf(err, "reading driver config %s", path))
	}

	d := Default
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Driver{}, errkind.With(errkind.Config, errors.Wrapf(err, "parsing driver config %s", path))
	}
	return d, nil
}
