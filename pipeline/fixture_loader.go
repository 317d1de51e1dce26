package pipeline

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFixtures reads every *.yaml file directly under dir and decodes it as
// a Fixture, the way the teacher pack's conformance loader walks a
// directory of declarative YAML test cases.
func LoadFixtures(dir string) ([]Fixture, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "reading fixture directory %s", dir)
	}

	var fixtures []Fixture
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		f, err := LoadFixtureFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// LoadFixtureFile reads and decodes a single fixture file — the CLI
// driver's "compile"/"run" actions load one *.dp source file this way,
// since this repo has no front-end parser of its own for that source
// language (see DESIGN.md).
func LoadFixtureFile(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, errors.Wrapf(err, "reading fixture %s", path)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, errors.Wrapf(err, "parsing fixture %s", path)
	}
	if f.Name == "" {
		f.Name = filepath.Base(path)
	}
	return f, nil
}
